package dte

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ElSalvador hora oficial (UTC-6, sin horario de verano). Las fechas de emisión
// del DTE y de la consulta pública se expresan en esta zona.
var ElSalvador = time.FixedZone("CST", -6*60*60)

// URLs del portal de consulta pública por ambiente.
const (
	ConsultaPublicaProduccion = "https://admin.factura.gob.sv/consultaPublica"
	ConsultaPublicaPruebas    = "https://test.factura.gob.sv/consultaPublica"
)

// ConsultaBaseURL devuelve la URL base de verificación para el ambiente.
func ConsultaBaseURL(ambiente string) string {
	if ambiente == AmbienteProduccion {
		return ConsultaPublicaProduccion
	}
	return ConsultaPublicaPruebas
}

// VerificationURL arma la URL que se codifica en el QR del documento impreso:
// {base}?ambiente={env}&codGen={codigoGeneracion}&fechaEmi={dd-MM-yyyy}, con la fecha en hora local.
func VerificationURL(ambiente, generationCode string, issueDate time.Time) (string, error) {
	if generationCode == "" {
		return "", errors.New("dte: el documento no tiene código de generación")
	}
	if ambiente != AmbientePruebas && ambiente != AmbienteProduccion {
		return "", errors.New("dte: ambiente inválido")
	}
	return fmt.Sprintf("%s?ambiente=%s&codGen=%s&fechaEmi=%s",
		ConsultaBaseURL(ambiente), ambiente, url.QueryEscape(generationCode), issueDate.In(ElSalvador).Format("02-01-2006")), nil
}

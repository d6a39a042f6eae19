package hacienda

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dte-api/internal/application/billing"
	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/domain/fiscal"
	"github.com/jhoicas/dte-api/pkg/dte"
)

// ControlNumber arma el número de control DTE-{tipo}-{establecimiento}-{correlativo de 15 dígitos}.
func ControlNumber(typeCode dte.DocumentType, establishment, number string) (string, error) {
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("hacienda: correlativo inválido %q", number)
	}
	if len(establishment) != 8 {
		return "", fmt.Errorf("hacienda: código de establecimiento inválido %q", establishment)
	}
	return fmt.Sprintf("DTE-%s-%s-%015d", typeCode, strings.ToUpper(establishment), n), nil
}

// ── Estructuras del JSON del DTE ──────────────────────────────────────────────

type identificacion struct {
	Version          int     `json:"version"`
	Ambiente         string  `json:"ambiente"`
	TipoDte          string  `json:"tipoDte"`
	NumeroControl    string  `json:"numeroControl"`
	CodigoGeneracion string  `json:"codigoGeneracion"`
	TipoModelo       int     `json:"tipoModelo"`
	TipoOperacion    int     `json:"tipoOperacion"`
	TipoContingencia *int    `json:"tipoContingencia"`
	MotivoContin     *string `json:"motivoContin"`
	FecEmi           string  `json:"fecEmi"`
	HorEmi           string  `json:"horEmi"`
	TipoMoneda       string  `json:"tipoMoneda"`
}

type direccion struct {
	Departamento string `json:"departamento"`
	Municipio    string `json:"municipio"`
	Complemento  string `json:"complemento"`
}

type emisor struct {
	NIT                 string    `json:"nit"`
	NRC                 string    `json:"nrc"`
	Nombre              string    `json:"nombre"`
	CodActividad        string    `json:"codActividad"`
	DescActividad       string    `json:"descActividad"`
	NombreComercial     *string   `json:"nombreComercial"`
	TipoEstablecimiento string    `json:"tipoEstablecimiento"`
	Direccion           direccion `json:"direccion"`
	Telefono            string    `json:"telefono"`
	Correo              string    `json:"correo"`
	CodEstableMH        string    `json:"codEstableMH"`
	CodPuntoVentaMH     string    `json:"codPuntoVentaMH"`
}

// receptor usa nit/nrc en crédito fiscal y tipoDocumento/numDocumento en el resto.
type receptor struct {
	TipoDocumento *string `json:"tipoDocumento,omitempty"`
	NumDocumento  *string `json:"numDocumento,omitempty"`
	NIT           *string `json:"nit,omitempty"`
	NRC           *string `json:"nrc"`
	Nombre        string  `json:"nombre"`
	CodActividad  *string `json:"codActividad"`
	DescActividad *string `json:"descActividad"`
	Direccion     *string `json:"direccionComplemento,omitempty"`
	Telefono      *string `json:"telefono"`
	Correo        *string `json:"correo"`
}

type documentoRelacionado struct {
	TipoDocumento   string `json:"tipoDocumento"`
	TipoGeneracion  int    `json:"tipoGeneracion"`
	NumeroDocumento string `json:"numeroDocumento"`
	FechaEmision    string `json:"fechaEmision"`
}

type item struct {
	NumItem         int      `json:"numItem"`
	TipoItem        int      `json:"tipoItem"`
	NumeroDocumento *string  `json:"numeroDocumento"`
	Codigo          *string  `json:"codigo"`
	Descripcion     string   `json:"descripcion"`
	Cantidad        int      `json:"cantidad"`
	UniMedida       int      `json:"uniMedida"`
	PrecioUni       float64  `json:"precioUni"`
	MontoDescu      float64  `json:"montoDescu"`
	VentaNoSuj      float64  `json:"ventaNoSuj"`
	VentaExenta     float64  `json:"ventaExenta"`
	VentaGravada    float64  `json:"ventaGravada"`
	Tributos        []string `json:"tributos"`
	IvaItem         *float64 `json:"ivaItem,omitempty"`
}

type resumen struct {
	TotalNoSuj          float64 `json:"totalNoSuj"`
	TotalExenta         float64 `json:"totalExenta"`
	TotalGravada        float64 `json:"totalGravada"`
	SubTotalVentas      float64 `json:"subTotalVentas"`
	TotalDescu          float64 `json:"totalDescu"`
	SubTotal            float64 `json:"subTotal"`
	IvaRete1            float64 `json:"ivaRete1"`
	ReteRenta           float64 `json:"reteRenta"`
	MontoTotalOperacion float64 `json:"montoTotalOperacion"`
	TotalPagar          float64 `json:"totalPagar"`
	TotalIva            float64 `json:"totalIva"`
	CondicionOperacion  int     `json:"condicionOperacion"`
}

type extension struct {
	NombEntrega   *string `json:"nombEntrega"`
	DocuEntrega   *string `json:"docuEntrega"`
	NombRecibe    *string `json:"nombRecibe"`
	DocuRecibe    *string `json:"docuRecibe"`
	Observaciones *string `json:"observaciones"`
}

type dteDocument struct {
	Identificacion       identificacion         `json:"identificacion"`
	DocumentoRelacionado []documentoRelacionado `json:"documentoRelacionado"`
	Emisor               emisor                 `json:"emisor"`
	Receptor             receptor               `json:"receptor"`
	CuerpoDocumento      []item                 `json:"cuerpoDocumento"`
	Resumen              resumen                `json:"resumen"`
	Extension            *extension             `json:"extension"`
	Apendice             []any                  `json:"apendice"`
}

// buildDTE arma el JSON sin firmar del documento.
func buildDTE(req billing.SubmissionRequest, generationCode, controlNumber string) (*dteDocument, error) {
	doc, company, customer := req.Document, req.Company, req.Customer
	info, ok := doc.TypeCode.Info()
	if !ok {
		return nil, fmt.Errorf("hacienda: tipo de documento desconocido %q", doc.TypeCode)
	}
	issued := doc.IssueDate.In(dte.ElSalvador)
	taxFactor := req.TaxFactor
	if !taxFactor.GreaterThan(decimal.NewFromInt(1)) {
		taxFactor = fiscal.DefaultTaxFactor
	}

	out := &dteDocument{
		Identificacion: identificacion{
			Version:          info.SchemaVersion,
			Ambiente:         req.Ambiente,
			TipoDte:          string(doc.TypeCode),
			NumeroControl:    controlNumber,
			CodigoGeneracion: generationCode,
			TipoModelo:       dte.ModeloFacturacionPrevio,
			TipoOperacion:    dte.TransmisionNormal,
			FecEmi:           issued.Format("2006-01-02"),
			HorEmi:           issued.Format("15:04:05"),
			TipoMoneda:       dte.Moneda,
		},
		Emisor:   buildEmisor(company),
		Receptor: buildReceptor(doc.TypeCode, customer),
		Resumen:  buildResumen(doc),
	}

	var relatedCode *string
	if req.Related != nil {
		out.DocumentoRelacionado = []documentoRelacionado{{
			TipoDocumento:   string(req.Related.TypeCode),
			TipoGeneracion:  2, // electrónico
			NumeroDocumento: req.Related.GenerationCode,
			FechaEmision:    req.Related.IssueDate.In(dte.ElSalvador).Format("2006-01-02"),
		}}
		relatedCode = &req.Related.GenerationCode
	}

	for _, it := range doc.Items {
		line := item{
			NumItem:         it.Position,
			TipoItem:        dte.ItemBienes,
			NumeroDocumento: relatedCode,
			Descripcion:     it.Description,
			Cantidad:        it.Quantity,
			UniMedida:       dte.UnidadUnidad,
			PrecioUni:       money(it.UnitPrice),
		}
		if doc.TypeCode.CarriesVAT() {
			line.VentaGravada = money(it.LineTotal)
		} else {
			line.VentaExenta = money(it.LineTotal)
		}
		if doc.TypeCode == dte.TipoFactura {
			// En factura el IVA va incluido en el precio y se informa por línea.
			iva := money(it.LineTotal.Sub(it.LineTotal.Div(taxFactor)))
			line.IvaItem = &iva
		}
		if it.ProductID != "" {
			code := it.ProductID
			line.Codigo = &code
		}
		out.CuerpoDocumento = append(out.CuerpoDocumento, line)
	}

	if ext := buildExtension(doc); ext != nil {
		out.Extension = ext
	}
	return out, nil
}

func buildEmisor(c *entity.Company) emisor {
	e := emisor{
		NIT:                 c.NIT,
		NRC:                 c.NRC,
		Nombre:              c.Name,
		CodActividad:        c.ActivityCode,
		DescActividad:       c.ActivityDesc,
		NombreComercial:     optional(c.TradeName),
		TipoEstablecimiento: c.EstablishmentType,
		Direccion: direccion{
			Departamento: c.Department,
			Municipio:    c.Municipality,
			Complemento:  c.Address,
		},
		Telefono: c.Phone,
		Correo:   c.Email,
	}
	if len(c.EstablishmentCode) == 8 {
		e.CodEstableMH = c.EstablishmentCode[:4]
		e.CodPuntoVentaMH = c.EstablishmentCode[4:]
	}
	return e
}

func buildReceptor(typeCode dte.DocumentType, c *entity.Customer) receptor {
	r := receptor{
		Nombre:        c.Name,
		NRC:           optional(c.NRC),
		CodActividad:  optional(c.ActivityCode),
		DescActividad: optional(c.ActivityDesc),
		Direccion:     optional(c.Address),
		Telefono:      optional(c.Phone),
		Correo:        optional(c.Email),
	}
	if typeCode.CreditFiscalFamily() {
		r.NIT = optional(c.DocumentNumber)
		return r
	}
	r.TipoDocumento = optional(c.DocumentType)
	r.NumDocumento = optional(c.DocumentNumber)
	return r
}

func buildResumen(doc *entity.Document) resumen {
	t := doc.Totals
	r := resumen{
		SubTotalVentas:      money(t.TotalAmount),
		SubTotal:            money(t.TotalAmount),
		IvaRete1:            money(t.IvaRete1),
		ReteRenta:           money(t.ReteRenta),
		MontoTotalOperacion: money(t.TotalAmount),
		TotalPagar:          money(t.TotalPagar),
		TotalIva:            money(t.Tax),
		CondicionOperacion:  1, // contado
	}
	if doc.TypeCode.CarriesVAT() {
		r.TotalGravada = money(t.TotalAmount)
	} else {
		r.TotalExenta = money(t.TotalAmount)
	}
	return r
}

func buildExtension(doc *entity.Document) *extension {
	d := doc.Delivery
	if d == (entity.Delivery{}) && doc.Observations == "" {
		return nil
	}
	return &extension{
		NombEntrega:   optional(d.DeliveredBy),
		DocuEntrega:   optional(d.DeliveredByDocument),
		NombRecibe:    optional(d.ReceivedBy),
		DocuRecibe:    optional(d.ReceivedByDocument),
		Observaciones: optional(doc.Observations),
	}
}

// ── Evento de invalidación ────────────────────────────────────────────────────

type anulacionIdentificacion struct {
	Version          int    `json:"version"`
	Ambiente         string `json:"ambiente"`
	CodigoGeneracion string `json:"codigoGeneracion"`
	FecAnula         string `json:"fecAnula"`
	HorAnula         string `json:"horAnula"`
}

type anulacionEmisor struct {
	NIT                 string  `json:"nit"`
	Nombre              string  `json:"nombre"`
	TipoEstablecimiento string  `json:"tipoEstablecimiento"`
	NomEstablecimiento  *string `json:"nomEstablecimiento"`
	CodEstableMH        *string `json:"codEstableMH"`
	Telefono            string  `json:"telefono"`
	Correo              string  `json:"correo"`
}

type anulacionDocumento struct {
	TipoDte          string  `json:"tipoDte"`
	CodigoGeneracion string  `json:"codigoGeneracion"`
	SelloRecibido    string  `json:"selloRecibido"`
	NumeroControl    string  `json:"numeroControl"`
	FecEmi           string  `json:"fecEmi"`
	MontoIva         float64 `json:"montoIva"`
	TipoDocumento    *string `json:"tipoDocumento"`
	NumDocumento     *string `json:"numDocumento"`
	Nombre           string  `json:"nombre"`
}

type anulacionMotivo struct {
	TipoAnulacion     int     `json:"tipoAnulacion"`
	MotivoAnulacion   *string `json:"motivoAnulacion"`
	NombreResponsable string  `json:"nombreResponsable"`
	TipDocResponsable string  `json:"tipDocResponsable"`
	NumDocResponsable string  `json:"numDocResponsable"`
	NombreSolicita    string  `json:"nombreSolicita"`
	TipDocSolicita    string  `json:"tipDocSolicita"`
	NumDocSolicita    string  `json:"numDocSolicita"`
}

type anulacionDocument struct {
	Identificacion anulacionIdentificacion `json:"identificacion"`
	Emisor         anulacionEmisor         `json:"emisor"`
	Documento      anulacionDocumento      `json:"documento"`
	Motivo         anulacionMotivo         `json:"motivo"`
}

func buildAnulacion(req entity.InvalidationRequest) (*anulacionDocument, error) {
	iva, err := decimal.NewFromString(req.Document.Tax)
	if err != nil && req.Document.Tax != "" {
		return nil, fmt.Errorf("hacienda: monto de IVA inválido %q", req.Document.Tax)
	}
	emitted := req.Identification.EmittedAt.In(dte.ElSalvador)
	var codEstable *string
	if len(req.Issuer.Establishment) == 8 {
		codEstable = optional(req.Issuer.Establishment[:4])
	}
	return &anulacionDocument{
		Identificacion: anulacionIdentificacion{
			Version:          req.Identification.Version,
			Ambiente:         req.Identification.Ambiente,
			CodigoGeneracion: req.Identification.GenerationCode,
			FecAnula:         emitted.Format("2006-01-02"),
			HorAnula:         emitted.Format("15:04:05"),
		},
		Emisor: anulacionEmisor{
			NIT:                 req.Issuer.NIT,
			Nombre:              req.Issuer.Name,
			TipoEstablecimiento: "01",
			NomEstablecimiento:  optional(req.Issuer.Name),
			CodEstableMH:        codEstable,
			Telefono:            req.Issuer.Phone,
			Correo:              req.Issuer.Email,
		},
		Documento: anulacionDocumento{
			TipoDte:          string(req.Document.TypeCode),
			CodigoGeneracion: req.Document.GenerationCode,
			SelloRecibido:    req.Document.ReceptionSeal,
			NumeroControl:    req.Document.ControlNumber,
			FecEmi:           req.Document.IssueDate.In(dte.ElSalvador).Format("2006-01-02"),
			MontoIva:         money(iva),
			TipoDocumento:    optional(req.Document.CustomerDocType),
			NumDocumento:     optional(req.Document.CustomerDocNum),
			Nombre:           req.Document.CustomerName,
		},
		Motivo: anulacionMotivo{
			TipoAnulacion:     req.Motive.ReasonCode,
			MotivoAnulacion:   optional(req.Motive.ReasonText),
			NombreResponsable: req.Motive.ResponsibleName,
			TipDocResponsable: req.Motive.ResponsibleDocType,
			NumDocResponsable: req.Motive.ResponsibleDocNumber,
			NombreSolicita:    req.Motive.RequesterName,
			TipDocSolicita:    req.Motive.RequesterDocType,
			NumDocSolicita:    req.Motive.RequesterDocNumber,
		},
	}, nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

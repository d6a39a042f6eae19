package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/dte-api/internal/domain/entity"
	"github.com/jhoicas/dte-api/internal/infrastructure/postgres"
)

var seedActivitiesCmd = &cobra.Command{
	Use:   "seed-actividades archivo.csv",
	Short: "Carga el catálogo de actividades económicas (CAT-019) desde CSV",
	Long: `Lee un CSV "codigo;descripcion" tal como lo publica Hacienda y lo inserta o
actualiza en economic_activities. Por defecto el archivo se interpreta como ISO-8859-1.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeedActivities,
}

func init() {
	seedActivitiesCmd.Flags().Bool("utf8", false, "el archivo ya está en UTF-8")
}

func runSeedActivities(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if utf8, _ := cmd.Flags().GetBool("utf8"); !utf8 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	activities, err := readActivities(r)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	_, _, pool, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := postgres.NewActivityRepository(pool).Upsert(ctx, activities)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Actividades cargadas: %d\n", n)
	return nil
}

// readActivities omite el encabezado y las filas sin código numérico.
func readActivities(r io.Reader) ([]entity.EconomicActivity, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var list []entity.EconomicActivity
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer CSV: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		code := strings.TrimSpace(rec[0])
		desc := strings.TrimSpace(rec[1])
		if code == "" || desc == "" || !isDigits(code) || seen[code] {
			continue
		}
		seen[code] = true
		list = append(list, entity.EconomicActivity{Code: code, Description: desc})
	}
	return list, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

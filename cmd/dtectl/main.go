// dtectl herramientas de operación para la API de DTE: cálculo de totales,
// URL de verificación, correlativos, migraciones y carga del catálogo de actividades.
//
// Uso: go run ./cmd/dtectl --help
package main

func main() {
	Execute()
}

package entity

// EconomicActivity entrada del catálogo CAT-019 de actividades económicas.
type EconomicActivity struct {
	Code        string
	Description string
}

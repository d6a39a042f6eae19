package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"2:11.30", " 1 : 5.65 "})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "22.6", items[0].LineTotal.String())
	assert.Equal(t, 2, items[1].Position)

	_, err = parseItems([]string{"2x11.30"})
	assert.Error(t, err)
	_, err = parseItems([]string{"dos:11.30"})
	assert.Error(t, err)
	_, err = parseItems([]string{"2:abc"})
	assert.Error(t, err)
}

func TestTotalsCommand_Factura(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"totals", "--type", "01", "2:11.30", "1:5.65"})
	require.NoError(t, rootCmd.Execute())

	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "28.25", got["total_amount"])
	assert.Equal(t, "3.25", got["tax"])
	assert.Equal(t, "25.00", got["sub_total"])
	assert.Equal(t, "28.25", got["total_pagar"])
}

func TestQRCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"qr", "--ambiente", "01", "ABC-123", "2026-03-15"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t,
		"https://admin.factura.gob.sv/consultaPublica?ambiente=01&codGen=ABC-123&fechaEmi=15-03-2026",
		strings.TrimSpace(out.String()))
}

func TestReadActivities(t *testing.T) {
	csv := "CODIGO;VALORES\n01111;Cultivo de cereales\n;sin codigo\n01111;duplicado\nxx;no numerico\n46900;Venta al por mayor\n"
	list, err := readActivities(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "01111", list[0].Code)
	assert.Equal(t, "Cultivo de cereales", list[0].Description)
	assert.Equal(t, "46900", list[1].Code)
}

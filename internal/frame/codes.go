package frame

import "fmt"

// ApprovedCode is the value field 48 carries when a transaction is approved.
const ApprovedCode = "00"

// responseMessages is the field-48 response-code dictionary from the
// Credibanco TEF II profile. Approval ("00") is handled separately by the
// approval gate, not looked up here.
var responseMessages = map[string]string{
	"01": "Comuníquese con el emisor",
	"02": "Comuníquese con el emisor",
	"03": "Comercio no registrado",
	"04": "Retener tarjeta",
	"05": "No honrar",
	"06": "Error",
	"07": "Retener tarjeta",
	"12": "Transacción inválida",
	"13": "Monto inválido",
	"14": "Tarjeta inválida",
	"15": "Emisor inválido",
	"19": "Reintente la transacción",
	"30": "Error de formato",
	"41": "Tarjeta perdida",
	"43": "Tarjeta robada",
	"51": "Fondos insuficientes",
	"54": "Tarjeta vencida",
	"55": "PIN inválido",
	"57": "Transacción no permitida",
	"58": "Transacción no permitida",
	"59": "Sospecha de fraude",
	"61": "Excede límite",
	"62": "Tarjeta restringida",
	"63": "Violación de seguridad",
	"65": "Excede límite",
	"75": "Excede intentos de PIN",
	"76": "Original no encontrado",
	"77": "Monto no coincide",
	"78": "Cuenta inexistente",
	"85": "Sin razón para declinar",
	"91": "Emisor no disponible",
	"92": "Destino inalcanzable",
	"93": "No se puede completar",
	"94": "Transacción duplicada",
	"96": "Error",
	"99": "Problema de comunicación",
}

// DescribeResponseCode returns the human-readable message for a field-48
// response code, or the "Código desconocido" fallback for anything not in
// the dictionary.
func DescribeResponseCode(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Código desconocido: %s", code)
}

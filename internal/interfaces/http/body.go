package http

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/shopspring/decimal"
)

// quantityFields campos decimales de los cuerpos de stock, en cualquier nivel del JSON.
var quantityFields = map[string]bool{"quantity": true, "delta": true, "min_threshold": true}

// parseBody decodifica el cuerpo en out. Si falla, responde y devuelve ok=false: una cantidad
// no numérica produce INVALID_QUANTITY y cualquier otro fallo INVALID_BODY.
func parseBody(c *fiber.Ctx, out any, op string) (ok bool, err error) {
	if err := c.BodyParser(out); err == nil {
		return true, nil
	}
	if field, bad := nonNumericQuantity(c.Body()); bad {
		return false, writeError(c, &domain.StockError{Kind: domain.ErrInvalidQuantity, Op: op + "." + field})
	}
	return false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
}

func nonNumericQuantity(body []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	return findNonNumeric(v)
}

func findNonNumeric(v any) (string, bool) {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			if quantityFields[k] && !isDecimal(x) {
				return k, true
			}
			if field, bad := findNonNumeric(x); bad {
				return field, true
			}
		}
	case []any:
		for _, x := range t {
			if field, bad := findNonNumeric(x); bad {
				return field, true
			}
		}
	}
	return "", false
}

func isDecimal(v any) bool {
	var s string
	switch t := v.(type) {
	case nil:
		return true
	case json.Number:
		s = t.String()
	case string:
		s = t
	default:
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

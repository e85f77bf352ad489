package admin

import (
	"crypto/rand"
	"encoding/hex"
)

// tempPassword genera la credencial inicial: 16 bytes aleatorios
// criptográficos, hex, truncado a 12 caracteres. Se devuelve al caller
// una sola vez; se espera que fuerce el cambio fuera de banda.
func tempPassword() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:])[:12], nil
}

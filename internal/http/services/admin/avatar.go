package admin

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var dataURIRe = regexp.MustCompile(`^data:([^;]+);base64,(.*)$`)

// decodeAvatar decodifica la imagen embebida. Acepta un data-URI
// (data:<mime>;base64,<payload>) o base64 pelado. Devuelve los bytes y
// el media type declarado ("" si no venía en el URI).
// No valida dimensiones ni contenido: cualquier payload decodificable
// es aceptado.
func decodeAvatar(raw string) ([]byte, string, error) {
	mime := ""
	payload := raw
	if m := dataURIRe.FindStringSubmatch(raw); m != nil {
		mime = m[1]
		payload = m[2]
	}
	bytes, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return bytes, mime, nil
}

// avatarExt resuelve la extensión del archivo con esta precedencia:
// subtipo del media type declarado > extensión del filename hint > jpg.
func avatarExt(mime, nameHint string) string {
	if mime != "" {
		if i := strings.Index(mime, "/"); i >= 0 && i+1 < len(mime) {
			return mime[i+1:]
		}
	}
	if i := strings.LastIndex(nameHint, "."); i >= 0 && i+1 < len(nameHint) {
		return nameHint[i+1:]
	}
	return "jpg"
}

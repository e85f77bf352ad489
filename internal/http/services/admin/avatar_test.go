package admin

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeAvatar_DataURI(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	data, mime, err := decodeAvatar("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", mime)
	}
	if !bytes.Equal(data, raw) {
		t.Fatalf("payload mismatch: %v", data)
	}
}

func TestDecodeAvatar_BareBase64(t *testing.T) {
	raw := []byte("hola")
	data, mime, err := decodeAvatar(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "" {
		t.Fatalf("bare payload must not declare a mime, got %q", mime)
	}
	if !bytes.Equal(data, raw) {
		t.Fatalf("payload mismatch: %v", data)
	}
}

func TestDecodeAvatar_InvalidPayload(t *testing.T) {
	if _, _, err := decodeAvatar("data:image/png;base64,%%%"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, _, err := decodeAvatar("no es base64!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestAvatarExt_Precedence(t *testing.T) {
	cases := []struct {
		mime, name, want string
	}{
		{"image/png", "foto.jpeg", "png"},               // el mime gana
		{"image/webp", "", "webp"},                      // subtipo del mime
		{"", "avatar.jpeg", "jpeg"},                     // fallback al filename
		{"", "archivo.con.puntos.gif", "gif"},           // última extensión
		{"", "sin-extension", "jpg"},                    // default
		{"", "", "jpg"},                                 // default sin pistas
		{"image/svg+xml", "x.png", "svg+xml"},           // subtipo literal
	}
	for _, c := range cases {
		if got := avatarExt(c.mime, c.name); got != c.want {
			t.Fatalf("avatarExt(%q, %q) = %q, want %q", c.mime, c.name, got, c.want)
		}
	}
}

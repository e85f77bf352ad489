// Package supabase implementa las capabilities externas (identidad,
// storage de blobs, relación de perfiles) sobre la API REST del backend.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config credenciales del backend. ServiceKey es la credencial
// privilegiada: nunca se loguea ni se expone en responses.
type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// Client es el handle compartido por los tres adapters.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

// New valida la configuración y crea el client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	key := strings.TrimSpace(cfg.ServiceKey)
	if base == "" || key == "" {
		return nil, errors.New("supabase: base url and service key required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: base,
		key:     key,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// APIError es un error devuelto por el backend. Error() devuelve solo el
// mensaje del proveedor: el controller lo concatena a sus propios prefijos.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// newRequest arma el request con las credenciales privilegiadas.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	return req, nil
}

// doJSON ejecuta un request con body/respuesta JSON. out puede ser nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

// readAPIError extrae el mensaje del body de error. Los distintos
// servicios del backend usan distintas keys; se prueban en orden.
func readAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))

	var payload map[string]any
	if err := json.Unmarshal(b, &payload); err == nil {
		for _, k := range []string{"msg", "message", "error_description", "error"} {
			if v, ok := payload[k].(string); ok && v != "" {
				return &APIError{Status: resp.StatusCode, Message: v}
			}
		}
	}
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

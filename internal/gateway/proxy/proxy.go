package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy
// ============================================================

// Заголовки, которые уходят в сервис ядра.
var forwardHeaders = []string{"Authorization", "X-TW-Token", "Accept"}

// Proxy пересылает запросы в один upstream (сервис ядра).
type Proxy struct {
	base   string
	client *http.Client
}

func New(baseURL string, timeout time.Duration) *Proxy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Proxy{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// To пересылает запрос на фиксированный путь upstream.
func (p *Proxy) To(path string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.forward(c, p.base+path+query(c))
	}
}

// Strip пересылает запрос, убирая prefix из пути: /api/v1/elements/1 → /elements/1.
func (p *Proxy) Strip(prefix string) fiber.Handler {
	return func(c fiber.Ctx) error {
		path := strings.TrimPrefix(c.Path(), prefix)
		if path == "" {
			path = "/"
		}
		return p.forward(c, p.base+path+query(c))
	}
}

// Ping проверяет готовность upstream.
func (p *Proxy) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/health/ready", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return nil
}

func query(c fiber.Ctx) string {
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		return "?" + string(q)
	}
	return ""
}

// forward проксирует любой метод с учетом multipart/raw.
func (p *Proxy) forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), targetURL, len(c.Body()))

	contentType := c.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return p.sendMultipart(c, targetURL)
	}
	return p.send(c, targetURL, contentType, bytes.NewReader(c.Body()))
}

func (p *Proxy) send(c fiber.Ctx, targetURL, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(500).JSON(fiber.Map{"ok": false, "error": fiber.Map{"code": "Internal", "title": "proxy failed"}})
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, h := range forwardHeaders {
		if v := c.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(502).JSON(fiber.Map{"ok": false, "error": fiber.Map{"code": "BadGateway", "title": "failed to reach kernel service"}})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func (p *Proxy) sendMultipart(c fiber.Ctx, targetURL string) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("[PROXY] Failed to parse multipart: %v", err)
		return c.Status(400).JSON(fiber.Map{"ok": false, "error": fiber.Map{"code": "InvalidParams", "title": "invalid multipart data"}})
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				log.Printf("[PROXY] Failed to open file: %v", err)
				continue
			}

			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, fileHeader.Filename))
			h.Set("Content-Type", fileHeader.Header.Get("Content-Type"))

			part, err := writer.CreatePart(h)
			if err == nil {
				_, err = io.Copy(part, file)
			}
			file.Close()
			if err != nil {
				log.Printf("[PROXY] Failed to copy part: %v", err)
			}
		}
	}

	for key, values := range form.Value {
		for _, value := range values {
			writer.WriteField(key, value)
		}
	}
	writer.Close()

	return p.send(c, targetURL, writer.FormDataContentType(), body)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(502).JSON(fiber.Map{"ok": false, "error": fiber.Map{"code": "BadGateway", "title": "invalid upstream response"}})
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/matuteb/gestion-api/internal/application/iaval"
	"github.com/matuteb/gestion-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que AnthropicService implementa RemitoExtractor.
var _ iaval.RemitoExtractor = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	anthropicSystemPrompt = `Eres un validador de remitos de proveedores en Argentina. Recibes el PDF del remito original y el JSON con lo que un operador cargó a mano en el sistema.
Tu tarea es detectar diferencias entre el remito y lo cargado, y proponer correcciones.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin bloques de código` + " ```json" + `) con esta estructura exacta:
{
  "header": {
    "remito_number": "<número de remito tal como figura en el documento, o null si coincide>",
    "remito_date": "<fecha YYYY-MM-DD, o null si coincide>",
    "vat_rate": <alícuota de IVA como número (21, 10.5, 0), o null si coincide>,
    "note": null
  },
  "lines": [
    {
      "title": "<descripción corregida o null>",
      "supplier_sku": "<código del proveedor corregido o null>",
      "qty": <cantidad corregida como entero o null>,
      "unit_cost": <costo unitario corregido como número o null>,
      "line_discount": <descuento porcentual corregido o null>
    }
  ],
  "confidence": <número decimal entre 0.0 y 1.0>,
  "comments": ["<observación breve en español por cada diferencia relevante>"]
}

Reglas:
- "lines" debe estar alineado por índice con los renglones cargados: la posición i corrige el renglón i. No agregues renglones.
- Usa null en todo campo donde lo cargado coincide con el remito. Solo propone valores que leíste en el documento.
- confidence: 0.9–1.0 = lectura clara, 0.7–0.89 = legible con dudas, <0.7 = documento poco legible.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`
)

// AnthropicService adaptador que implementa RemitoExtractor usando la API REST
// de Anthropic (Claude). Usa net/http de la librería estándar; no requiere el
// SDK oficial. El PDF viaja como bloque document en base64.
type AnthropicService struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador.
// model suele ser "claude-3-5-haiku-20241022".
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicService(apiKey, model string) *AnthropicService {
	return &AnthropicService{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			// Timeout de red de 90 s; el use case impone además su propio
			// context.WithTimeout. Leer un PDF escaneado es lento.
			Timeout: 90 * time.Second,
		},
	}
}

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                 `json:"role"`
	Content []anthropicContentPart `json:"content"`
}

type anthropicContentPart struct {
	Type   string           `json:"type"` // document | text
	Source *documentSource  `json:"source,omitempty"`
	Text   string           `json:"text,omitempty"`
}

type documentSource struct {
	Type      string `json:"type"` // base64
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque Claude lo envuelva en markdown.
// Captura desde el primer '{' hasta el último '}' coincidente.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Implementación del puerto ─────────────────────────────────────────────────

// ExtractProposal envía el remito y el estado cargado a Claude y devuelve la
// propuesta de corrección parcial.
func (s *AnthropicService) ExtractProposal(ctx context.Context, doc iaval.RemitoDocument, current iaval.PurchaseSnapshot) (*entity.IavalProposal, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	snapshotJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar estado cargado: %w", err)
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 4096,
		System:    anthropicSystemPrompt,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContentPart{
					{
						Type: "document",
						Source: &documentSource{
							Type:      "base64",
							MediaType: doc.MimeType,
							Data:      base64.StdEncoding.EncodeToString(doc.Data),
						},
					},
					{
						Type: "text",
						Text: "Lo cargado en el sistema:\n" + string(snapshotJSON),
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil, fmt.Errorf("AI: leer respuesta: %w", err)
	}

	// Manejar errores HTTP de la API de Anthropic
	if resp.StatusCode != http.StatusOK {
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return nil, fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}

	if len(anthResp.Content) == 0 {
		return nil, fmt.Errorf("AI: Claude devolvió respuesta vacía")
	}

	rawText := anthResp.Content[0].Text

	// Parseo seguro: extraer solo el bloque JSON aunque Claude añada texto adicional.
	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}

	var proposal entity.IavalProposal
	if err := json.Unmarshal([]byte(cleanJSON), &proposal); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de propuesta: %w (JSON extraído: %s)", err, cleanJSON)
	}

	if proposal.Confidence < 0 {
		proposal.Confidence = 0
	} else if proposal.Confidence > 1 {
		proposal.Confidence = 1
	}
	// Propuestas para renglones que no existen se descartan.
	if len(proposal.Lines) > len(current.Lines) {
		proposal.Lines = proposal.Lines[:len(current.Lines)]
	}

	return &proposal, nil
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre.
// Estrategia en dos pasos:
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	// Eliminar bloques markdown ```json ... ``` o ``` ... ```
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		// Quitar la línea de apertura (```json o ```)
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		// Quitar el cierre ```
		if close := strings.LastIndex(after, "```"); close != -1 {
			after = after[:close]
		}
		text = strings.TrimSpace(after)
	}

	// Si el texto resultante ya empieza con '{', usarlo directamente
	if strings.HasPrefix(text, "{") {
		return text
	}

	// Fallback: regex para extraer el primer {...}
	match := jsonBlockRe.FindString(text)
	return strings.TrimSpace(match)
}

package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Brand Detection Model Prompts ---

const BrandDetectionSystemPrompt = "Eres un analizador de planos arquitectónicos. Tu tarea es detectar todas las marcas comerciales mencionadas como texto y responder únicamente con JSON válido."

// BrandDetectionImagePrompt is formatted with the page number (twice: once in
// the instructions, once in the response template).
const BrandDetectionImagePrompt = `Analiza esta imagen de un plano arquitectónico (página %d) y detecta TODAS las marcas comerciales mencionadas como texto.

INSTRUCCIONES:
1. Busca EXCLUSIVAMENTE nombres de marcas escritos como texto en el plano: especificaciones técnicas, notas, leyendas, títulos de secciones y detalles de equipos y materiales.
2. Captura los nombres exactos de las marcas tal como aparecen. Si una marca aparece con variaciones (ej: "Samsung" y "SAMSUNG"), incluye ambas.
3. Solo nombres de marcas, no descripciones genéricas de productos.
4. EXCLUYE Hergon y todas sus variantes (Grupo Hergon SA, Hergon SA, etc.).
5. Si no encuentras marcas, responde con una lista vacía.

Formato de respuesta:
{
    "brands_detected": ["Nombre exacto de la marca 1", "Nombre exacto de la marca 2"],
    "page_number": %d
}

Responde únicamente con el JSON, sin texto adicional.`

// BrandDetectionTextPrompt is the OCR-then-text variant, formatted with the
// page number (twice) and the extracted page text.
const BrandDetectionTextPrompt = `El siguiente texto fue extraído por OCR de un plano arquitectónico (página %d). Detecta TODAS las marcas comerciales mencionadas.

INSTRUCCIONES:
1. Busca EXCLUSIVAMENTE nombres de marcas comerciales presentes en el texto.
2. Captura los nombres exactos tal como aparecen, incluyendo variaciones de mayúsculas.
3. Solo nombres de marcas, no descripciones genéricas de productos.
4. EXCLUYE Hergon y todas sus variantes (Grupo Hergon SA, Hergon SA, etc.).
5. Si no encuentras marcas, responde con una lista vacía.

Formato de respuesta:
{
    "brands_detected": ["Nombre exacto de la marca 1"],
    "page_number": %d
}

Responde únicamente con el JSON, sin texto adicional.

TEXTO DEL PLANO:
%s`

// GeminiPool holds a small fixed set of independently configured generative
// models. Work units pick a model by index modulo the pool size, spreading
// load across connections so a single client object never becomes a
// rate-limit hot spot.
type GeminiPool struct {
	models     []*genai.GenerativeModel
	baseClient *genai.Client
}

// NewGeminiPool creates size configured brand-detection models on one Vertex
// AI connection per pool entry's shared base client.
func NewGeminiPool(ctx context.Context, projectID, region, modelName string, size int) (*GeminiPool, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewGeminiPool: projectID and region cannot be empty")
	}
	if size < 1 {
		return nil, fmt.Errorf("NewGeminiPool: pool size must be at least 1, got %d", size)
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	models := make([]*genai.GenerativeModel, 0, size)
	for i := 0; i < size; i++ {
		m := baseClient.GenerativeModel(modelName)
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(BrandDetectionSystemPrompt)},
		}
		m.GenerationConfig = genai.GenerationConfig{
			// Force JSON output. This is a critical setting for this model.
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.1),
		}
		m.SafetySettings = []*genai.SafetySetting{
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		}
		models = append(models, m)
	}

	return &GeminiPool{
		models:     models,
		baseClient: baseClient,
	}, nil
}

// Model returns the pool entry for the given work index (round-robin by
// index modulo pool size). Safe for concurrent use after construction.
func (p *GeminiPool) Model(index int) *genai.GenerativeModel {
	if index < 0 {
		index = -index
	}
	return p.models[index%len(p.models)]
}

// Size returns the number of pooled models.
func (p *GeminiPool) Size() int {
	return len(p.models)
}

func (p *GeminiPool) Close() error {
	if p.baseClient != nil {
		return p.baseClient.Close()
	}
	return nil
}

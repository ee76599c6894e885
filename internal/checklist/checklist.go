// Package checklist supplies the canonical, weighted catalog of marketing
// audit categories and items. This is static configuration data: the
// evaluator in internal/audit decides item statuses, the checklist only
// describes what gets checked and how much each check matters.
package checklist

// Status is the audit state of a single checklist item.
type Status string

const (
	// StatusCorrect means the check passed.
	StatusCorrect Status = "correct"

	// StatusImprovable means the check found something, but below best practice.
	StatusImprovable Status = "improvable"

	// StatusMissing means the check found nothing where something is expected.
	StatusMissing Status = "missing"

	// StatusPending means the item has not been decided. Non-auto-detectable
	// items stay pending forever within this engine; auto-detectable items
	// fall back to pending when the input cannot be interpreted.
	StatusPending Status = "pending"
)

// Item is one audit check inside a category.
type Item struct {
	// ID is the stable identifier the evaluator keys its detectors on,
	// unique within the category.
	ID string `json:"id"`

	Label       string `json:"label"`
	Description string `json:"description"`

	// Weight is the relative importance within the category, 1..10.
	Weight int `json:"weight"`

	// AutoDetectable marks items the evaluator can decide from a snapshot
	// alone. Everything else requires external tooling or human judgment.
	AutoDetectable bool `json:"auto_detectable"`

	Status Status `json:"status"`

	// Note is a one-line explanation set by the evaluator when it assigns a
	// status. Empty for untouched items.
	Note string `json:"note,omitempty"`
}

// Category groups related items and carries their share of the global score.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Icon is an opaque display hint for the presentation layer.
	Icon string `json:"icon,omitempty"`

	// Weight is the category's percentage share of the global score. The
	// default catalog sums to 100, but the aggregator normalizes by the
	// actual sum so partial checklists stay correct.
	Weight int `json:"weight"`

	Items []Item `json:"items"`

	// Score is derived by the aggregator, 0..100. Cached for presentation;
	// always recomputable from Items.
	Score int `json:"score"`
}

// CloneCategories deep-copies a checklist so the evaluator can write statuses
// without touching the caller's slice.
func CloneCategories(cats []Category) []Category {
	out := make([]Category, len(cats))
	for i, c := range cats {
		out[i] = c
		out[i].Items = make([]Item, len(c.Items))
		copy(out[i].Items, c.Items)
	}
	return out
}

// Default returns the canonical checklist. Items start pending with no note.
func Default() []Category {
	return []Category{
		{
			ID:     "seo-onpage",
			Name:   "SEO On-Page",
			Icon:   "search",
			Weight: 20,
			Items: []Item{
				{ID: "title-tag", Label: "Etiqueta de título", Description: "Título único de 30-65 caracteres con la palabra clave principal", Weight: 9, AutoDetectable: true, Status: StatusPending},
				{ID: "meta-description", Label: "Meta descripción", Description: "Descripción de 120-160 caracteres que invite al clic", Weight: 8, AutoDetectable: true, Status: StatusPending},
				{ID: "headings", Label: "Jerarquía de encabezados", Description: "Un único H1 y subtítulos H2 que estructuren el contenido", Weight: 7, AutoDetectable: true, Status: StatusPending},
				{ID: "urls", Label: "URLs amigables", Description: "URLs cortas, en minúsculas y sin parámetros", Weight: 5, AutoDetectable: true, Status: StatusPending},
				{ID: "alt-tags", Label: "Atributos alt en imágenes", Description: "Texto alternativo descriptivo en las imágenes", Weight: 5, AutoDetectable: true, Status: StatusPending},
				{ID: "internal-links", Label: "Enlazado interno", Description: "Enlaces internos que distribuyen autoridad entre páginas", Weight: 6, AutoDetectable: true, Status: StatusPending},
				{ID: "keyword-targeting", Label: "Orientación de palabras clave", Description: "Contenido alineado con una investigación de palabras clave", Weight: 8, AutoDetectable: false, Status: StatusPending},
			},
		},
		{
			ID:     "seo-technical",
			Name:   "SEO Técnico",
			Icon:   "settings",
			Weight: 20,
			Items: []Item{
				{ID: "canonical", Label: "Etiqueta canonical", Description: "Canonical que evita contenido duplicado", Weight: 6, AutoDetectable: true, Status: StatusPending},
				{ID: "schema", Label: "Datos estructurados", Description: "Marcado JSON-LD (LegalService, LocalBusiness, FAQ...)", Weight: 7, AutoDetectable: true, Status: StatusPending},
				{ID: "ssl", Label: "Certificado SSL", Description: "Todo el sitio servido bajo HTTPS", Weight: 9, AutoDetectable: true, Status: StatusPending},
				{ID: "sitemap", Label: "Sitemap XML", Description: "Sitemap accesible y enviado a Search Console", Weight: 6, AutoDetectable: true, Status: StatusPending},
				{ID: "robots-txt", Label: "Robots.txt", Description: "Robots.txt presente y sin bloqueos accidentales", Weight: 5, AutoDetectable: true, Status: StatusPending},
				{ID: "mobile-friendly", Label: "Adaptación móvil", Description: "Meta viewport y diseño usable en móvil", Weight: 8, AutoDetectable: true, Status: StatusPending},
				{ID: "hreflang", Label: "Etiquetas hreflang", Description: "Hreflang para sitios multiidioma", Weight: 3, AutoDetectable: true, Status: StatusPending},
				{ID: "core-web-vitals", Label: "Core Web Vitals", Description: "LCP, INP y CLS dentro de los umbrales recomendados", Weight: 8, AutoDetectable: false, Status: StatusPending},
			},
		},
		{
			ID:     "content",
			Name:   "Contenido y Medios",
			Icon:   "file-text",
			Weight: 15,
			Items: []Item{
				{ID: "lazy-loading", Label: "Carga diferida de imágenes", Description: "Atributo loading=\"lazy\" en imágenes bajo el pliegue", Weight: 4, AutoDetectable: true, Status: StatusPending},
				{ID: "image-formats", Label: "Formatos de imagen modernos", Description: "Uso de WebP o AVIF en lugar de JPEG/PNG pesados", Weight: 4, AutoDetectable: true, Status: StatusPending},
				{ID: "multimedia", Label: "Contenido multimedia", Description: "Vídeo propio o incrustado que aumente el tiempo en página", Weight: 5, AutoDetectable: true, Status: StatusPending},
				{ID: "content-quality", Label: "Calidad del contenido", Description: "Textos originales, actualizados y orientados al cliente", Weight: 9, AutoDetectable: false, Status: StatusPending},
				{ID: "blog-activity", Label: "Actividad del blog", Description: "Publicación periódica de artículos especializados", Weight: 6, AutoDetectable: false, Status: StatusPending},
			},
		},
		{
			ID:     "ux-cro",
			Name:   "UX y Conversión",
			Icon:   "mouse-pointer",
			Weight: 15,
			Items: []Item{
				{ID: "forms", Label: "Formularios de contacto", Description: "Formularios visibles para captar consultas", Weight: 8, AutoDetectable: true, Status: StatusPending},
				{ID: "responsive", Label: "Diseño responsive", Description: "Experiencia coherente en cualquier dispositivo", Weight: 7, AutoDetectable: true, Status: StatusPending},
				{ID: "chat", Label: "Chat en vivo", Description: "Widget de chat para atención inmediata", Weight: 4, AutoDetectable: true, Status: StatusPending},
				{ID: "cta-clarity", Label: "Claridad de llamadas a la acción", Description: "CTAs visibles con un siguiente paso evidente", Weight: 7, AutoDetectable: false, Status: StatusPending},
			},
		},
		{
			ID:     "analytics",
			Name:   "Analítica y Medición",
			Icon:   "bar-chart",
			Weight: 10,
			Items: []Item{
				{ID: "ga4", Label: "Google Analytics 4", Description: "GA4 instalado con un ID de medición válido", Weight: 8, AutoDetectable: true, Status: StatusPending},
				{ID: "gtm", Label: "Google Tag Manager", Description: "Contenedor GTM para gestionar etiquetas", Weight: 6, AutoDetectable: true, Status: StatusPending},
				{ID: "meta-pixel", Label: "Píxel de Meta", Description: "Píxel de Facebook/Instagram para campañas", Weight: 4, AutoDetectable: true, Status: StatusPending},
				{ID: "linkedin-tag", Label: "LinkedIn Insight Tag", Description: "Etiqueta de LinkedIn para audiencias B2B", Weight: 3, AutoDetectable: true, Status: StatusPending},
				{ID: "heatmaps", Label: "Mapas de calor", Description: "Hotjar, Clarity u otra herramienta de comportamiento", Weight: 3, AutoDetectable: true, Status: StatusPending},
				{ID: "conversion-goals", Label: "Objetivos de conversión", Description: "Eventos de conversión configurados y medidos", Weight: 7, AutoDetectable: false, Status: StatusPending},
			},
		},
		{
			ID:     "offpage",
			Name:   "Presencia Externa",
			Icon:   "share-2",
			Weight: 10,
			Items: []Item{
				{ID: "social-media", Label: "Redes sociales", Description: "Perfiles sociales activos enlazados desde la web", Weight: 5, AutoDetectable: true, Status: StatusPending},
				{ID: "backlinks", Label: "Perfil de enlaces", Description: "Enlaces entrantes de directorios y medios del sector", Weight: 8, AutoDetectable: false, Status: StatusPending},
				{ID: "reviews", Label: "Reseñas", Description: "Reseñas recientes en Google Business Profile", Weight: 7, AutoDetectable: false, Status: StatusPending},
			},
		},
		{
			ID:     "legal",
			Name:   "Cumplimiento Legal",
			Icon:   "shield",
			Weight: 10,
			Items: []Item{
				{ID: "legal-notice", Label: "Aviso legal", Description: "Página de aviso legal enlazada desde todo el sitio", Weight: 7, AutoDetectable: true, Status: StatusPending},
				{ID: "privacy-policy", Label: "Política de privacidad", Description: "Política de privacidad conforme al RGPD", Weight: 8, AutoDetectable: true, Status: StatusPending},
				{ID: "cookies-banner", Label: "Banner de cookies", Description: "Gestor de consentimiento de cookies", Weight: 6, AutoDetectable: true, Status: StatusPending},
				{ID: "form-consent", Label: "Consentimiento en formularios", Description: "Casilla de consentimiento RGPD en los formularios", Weight: 7, AutoDetectable: true, Status: StatusPending},
			},
		},
	}
}

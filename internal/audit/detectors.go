package audit

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/farolabs/faro/internal/checklist"
	"github.com/farolabs/faro/internal/snapshot"
)

// page bundles the parsed views of a snapshot that detectors share. It is
// built once per Evaluate call so each detector stays a cheap lookup.
type page struct {
	snap  *snapshot.Snapshot
	doc   *goquery.Document // nil when the markup could not be parsed
	lower string            // lower-cased raw markup for signature matching
	base  *url.URL          // parsed snapshot URL, nil when unparseable
}

func newPage(snap *snapshot.Snapshot) *page {
	p := &page{
		snap:  snap,
		lower: strings.ToLower(snap.HTML),
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML)); err == nil {
		p.doc = doc
	}

	if u, err := url.Parse(snap.URL); err == nil && u.Scheme != "" && u.Host != "" {
		p.base = u
	}

	return p
}

// containsAny reports whether the lower-cased markup carries any of the given
// lower-cased signatures.
func (p *page) containsAny(signatures ...string) bool {
	for _, sig := range signatures {
		if strings.Contains(p.lower, sig) {
			return true
		}
	}
	return false
}

// detector decides the status of a single auto-detectable item from the page.
// Detectors are total: they always return a status, degrading to pending when
// the input cannot be interpreted.
type detector func(p *page) (checklist.Status, string)

// detectors maps checklist item IDs to their detection rule. Items without an
// entry (custom or manual-only checklists) are left untouched.
var detectors = map[string]detector{
	"title-tag":        detectTitleTag,
	"meta-description": detectMetaDescription,
	"headings":         detectHeadings,
	"urls":             detectCleanURL,
	"alt-tags":         detectAltTags,
	"internal-links":   detectInternalLinks,
	"canonical":        detectCanonical,
	"schema":           detectSchema,
	"ssl":              detectSSL,
	"sitemap":          detectSitemap,
	"robots-txt":       detectRobotsTxt,
	"mobile-friendly":  detectViewport,
	"hreflang":         detectHreflang,
	"lazy-loading":     detectLazyLoading,
	"image-formats":    detectImageFormats,
	"multimedia":       detectMultimedia,
	"forms":            detectForms,
	"responsive":       detectViewport, // same viewport heuristic on purpose
	"chat":             detectChat,
	"ga4":              detectGA4,
	"gtm":              detectGTM,
	"meta-pixel":       detectMetaPixel,
	"linkedin-tag":     detectLinkedInTag,
	"heatmaps":         detectHeatmaps,
	"social-media":     detectSocialMedia,
	"legal-notice":     detectLegalNotice,
	"privacy-policy":   detectPrivacyPolicy,
	"cookies-banner":   detectCookiesBanner,
	"form-consent":     detectFormConsent,
}

const (
	titleMinLen = 30
	titleMaxLen = 65

	metaDescMinLen = 120
	metaDescMaxLen = 160
)

func detectTitleTag(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	title := strings.TrimSpace(p.doc.Find("title").First().Text())
	if title == "" {
		return checklist.StatusMissing, "La página no tiene etiqueta <title>"
	}
	n := utf8.RuneCountInString(title)
	if n >= titleMinLen && n <= titleMaxLen {
		return checklist.StatusCorrect, fmt.Sprintf("Título de %d caracteres", n)
	}
	return checklist.StatusImprovable, fmt.Sprintf("Título de %d caracteres (recomendado %d-%d)", n, titleMinLen, titleMaxLen)
}

func detectMetaDescription(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	desc, ok := p.doc.Find(`meta[name="description"]`).Attr("content")
	desc = strings.TrimSpace(desc)
	if !ok || desc == "" {
		return checklist.StatusMissing, "Falta la meta descripción"
	}
	n := utf8.RuneCountInString(desc)
	if n >= metaDescMinLen && n <= metaDescMaxLen {
		return checklist.StatusCorrect, fmt.Sprintf("Meta descripción de %d caracteres", n)
	}
	return checklist.StatusImprovable, fmt.Sprintf("Meta descripción de %d caracteres (recomendado %d-%d)", n, metaDescMinLen, metaDescMaxLen)
}

func detectHeadings(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	h1 := p.doc.Find("h1").Length()
	h2 := p.doc.Find("h2").Length()

	switch {
	case h1 == 0:
		return checklist.StatusMissing, "No hay ningún H1 en la página"
	case h1 > 1:
		return checklist.StatusImprovable, fmt.Sprintf("Hay %d etiquetas H1; debería haber solo una", h1)
	case h2 >= 1:
		return checklist.StatusCorrect, fmt.Sprintf("Un H1 y %d H2", h2)
	default:
		return checklist.StatusImprovable, "Hay un H1 pero ningún H2 que estructure el contenido"
	}
}

var cleanPathRe = regexp.MustCompile(`(?i)^[a-z0-9\-/.]+$`)

func detectCleanURL(p *page) (checklist.Status, string) {
	if p.base == nil {
		return checklist.StatusPending, "No se pudo interpretar la URL de la página"
	}
	if p.base.RawQuery != "" {
		return checklist.StatusImprovable, "La URL contiene parámetros de consulta"
	}
	if p.base.Path != "" && !cleanPathRe.MatchString(p.base.Path) {
		return checklist.StatusImprovable, "La ruta contiene mayúsculas o caracteres poco amigables"
	}
	return checklist.StatusCorrect, "URL limpia y legible"
}

func detectAltTags(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	imgs := p.doc.Find("img")
	total := imgs.Length()
	if total == 0 {
		return checklist.StatusCorrect, "La página no contiene imágenes"
	}

	withAlt := 0
	imgs.Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			withAlt++
		}
	})

	ratio := float64(withAlt) / float64(total)
	note := fmt.Sprintf("%d de %d imágenes con atributo alt", withAlt, total)
	switch {
	case ratio >= 0.9:
		return checklist.StatusCorrect, note
	case ratio >= 0.5:
		return checklist.StatusImprovable, note
	default:
		return checklist.StatusMissing, note
	}
}

func detectInternalLinks(p *page) (checklist.Status, string) {
	if p.base == nil {
		return checklist.StatusPending, "No se pudo interpretar la URL de la página"
	}

	host := p.base.Hostname()
	internal := 0
	for _, raw := range p.snap.Links {
		ref, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		resolved := p.base.ResolveReference(ref)
		if resolved.Hostname() == host {
			internal++
		}
	}

	note := fmt.Sprintf("%d enlaces internos detectados", internal)
	switch {
	case internal >= 5:
		return checklist.StatusCorrect, note
	case internal >= 2:
		return checklist.StatusImprovable, note
	default:
		return checklist.StatusMissing, note
	}
}

func detectCanonical(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	if p.doc.Find(`link[rel="canonical"]`).Length() > 0 {
		return checklist.StatusCorrect, "Etiqueta canonical presente"
	}
	return checklist.StatusMissing, "Falta la etiqueta canonical"
}

func detectSchema(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	if p.doc.Find(`script[type="application/ld+json"]`).Length() > 0 {
		return checklist.StatusCorrect, "Datos estructurados JSON-LD presentes"
	}
	return checklist.StatusMissing, "No se detectaron datos estructurados"
}

func detectSSL(p *page) (checklist.Status, string) {
	if strings.HasPrefix(p.snap.URL, "https://") {
		return checklist.StatusCorrect, "La página se sirve bajo HTTPS"
	}
	return checklist.StatusMissing, "La página no se sirve bajo HTTPS"
}

func detectSitemap(p *page) (checklist.Status, string) {
	if strings.TrimSpace(p.snap.SitemapXML) != "" {
		return checklist.StatusCorrect, "Sitemap XML encontrado"
	}
	return checklist.StatusMissing, "No se encontró un sitemap XML"
}

func detectRobotsTxt(p *page) (checklist.Status, string) {
	if strings.TrimSpace(p.snap.RobotsTxt) != "" {
		return checklist.StatusCorrect, "robots.txt encontrado"
	}
	return checklist.StatusMissing, "No se encontró robots.txt"
}

func detectViewport(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	if p.doc.Find(`meta[name="viewport"]`).Length() > 0 {
		return checklist.StatusCorrect, "Meta viewport presente"
	}
	return checklist.StatusImprovable, "Falta la meta viewport para móviles"
}

func detectHreflang(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	if p.doc.Find("link[hreflang]").Length() > 0 {
		return checklist.StatusCorrect, "Etiquetas hreflang presentes"
	}
	// Absence is neutral: a single-language site does not need hreflang.
	return checklist.StatusPending, "Sin hreflang; solo necesario en sitios multiidioma"
}

func detectLazyLoading(p *page) (checklist.Status, string) {
	if p.doc != nil && p.doc.Find(`[loading="lazy"]`).Length() > 0 {
		return checklist.StatusCorrect, "Carga diferida detectada"
	}
	if p.containsAny(`loading="lazy"`, `loading='lazy'`) {
		return checklist.StatusCorrect, "Carga diferida detectada"
	}
	return checklist.StatusImprovable, "No se detectó loading=\"lazy\" en las imágenes"
}

func detectImageFormats(p *page) (checklist.Status, string) {
	if p.containsAny(".webp", ".avif") {
		return checklist.StatusCorrect, "Se usan formatos de imagen modernos (WebP/AVIF)"
	}
	return checklist.StatusImprovable, "No se detectaron imágenes WebP ni AVIF"
}

func detectMultimedia(p *page) (checklist.Status, string) {
	if p.doc != nil {
		if p.doc.Find("video").Length() > 0 {
			return checklist.StatusCorrect, "Vídeo incrustado en la página"
		}
		found := false
		p.doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, _ := s.Attr("src")
			src = strings.ToLower(src)
			if strings.Contains(src, "youtube") || strings.Contains(src, "vimeo") {
				found = true
				return false
			}
			return true
		})
		if found {
			return checklist.StatusCorrect, "Vídeo de YouTube/Vimeo incrustado"
		}
	}
	return checklist.StatusImprovable, "No se detectó contenido de vídeo"
}

func detectForms(p *page) (checklist.Status, string) {
	if p.doc == nil {
		return checklist.StatusPending, "No se pudo analizar el HTML"
	}
	n := p.doc.Find("form").Length()
	if n > 0 {
		return checklist.StatusCorrect, fmt.Sprintf("%d formularios en la página", n)
	}
	return checklist.StatusImprovable, "No hay formularios de contacto visibles"
}

var chatSignatures = []string{
	"tawk.to", "intercom", "drift", "crisp", "hubspot", "livechat", "tidio", "zendesk",
}

func detectChat(p *page) (checklist.Status, string) {
	if p.containsAny(chatSignatures...) {
		return checklist.StatusCorrect, "Widget de chat detectado"
	}
	// Absence is neutral: a chat widget is optional.
	return checklist.StatusPending, "No se detectó ningún chat en vivo"
}

var ga4MeasurementIDRe = regexp.MustCompile(`G-[A-Z0-9]{4,}`)

func detectGA4(p *page) (checklist.Status, string) {
	hasVendor := p.containsAny("gtag", "googletagmanager", "google-analytics")
	if hasVendor && ga4MeasurementIDRe.MatchString(p.snap.HTML) {
		return checklist.StatusCorrect, "Google Analytics 4 detectado"
	}
	return checklist.StatusMissing, "No se detectó Google Analytics 4"
}

func detectGTM(p *page) (checklist.Status, string) {
	if p.containsAny("googletagmanager.com/gtm") {
		return checklist.StatusCorrect, "Google Tag Manager detectado"
	}
	return checklist.StatusMissing, "No se detectó Google Tag Manager"
}

func detectMetaPixel(p *page) (checklist.Status, string) {
	if p.containsAny("connect.facebook.net", "fbq(", "fb-pixel") {
		return checklist.StatusCorrect, "Píxel de Meta detectado"
	}
	return checklist.StatusPending, "No se detectó el píxel de Meta"
}

func detectLinkedInTag(p *page) (checklist.Status, string) {
	if p.containsAny("snap.licdn.com", "_linkedin_partner_id", "linkedin insight") {
		return checklist.StatusCorrect, "LinkedIn Insight Tag detectada"
	}
	return checklist.StatusPending, "No se detectó la LinkedIn Insight Tag"
}

var heatmapSignatures = []string{
	"hotjar", "clarity.ms", "mouseflow", "fullstory", "luckyorange",
}

func detectHeatmaps(p *page) (checklist.Status, string) {
	if p.containsAny(heatmapSignatures...) {
		return checklist.StatusCorrect, "Herramienta de mapas de calor detectada"
	}
	return checklist.StatusPending, "No se detectaron herramientas de mapas de calor"
}

var socialDomains = []string{
	"facebook.com", "twitter.com", "x.com", "linkedin.com", "instagram.com", "youtube.com",
}

func detectSocialMedia(p *page) (checklist.Status, string) {
	seen := map[string]bool{}
	for _, raw := range p.snap.Links {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		for _, domain := range socialDomains {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				seen[domain] = true
			}
		}
	}

	note := fmt.Sprintf("%d redes sociales enlazadas", len(seen))
	switch {
	case len(seen) >= 3:
		return checklist.StatusCorrect, note
	case len(seen) >= 1:
		return checklist.StatusImprovable, note
	default:
		return checklist.StatusMissing, "No hay enlaces a redes sociales"
	}
}

var legalNoticeKeywords = []string{
	"aviso-legal", "aviso_legal", "terminos", "condiciones", "terms", "legal",
}

func detectLegalNotice(p *page) (checklist.Status, string) {
	if linkContainsAny(p.snap.Links, legalNoticeKeywords) {
		return checklist.StatusCorrect, "Enlace al aviso legal encontrado"
	}
	return checklist.StatusMissing, "No se encontró enlace al aviso legal"
}

var privacyKeywords = []string{
	"privacidad", "privacy", "politica-de-privacidad",
}

func detectPrivacyPolicy(p *page) (checklist.Status, string) {
	if linkContainsAny(p.snap.Links, privacyKeywords) {
		return checklist.StatusCorrect, "Enlace a la política de privacidad encontrado"
	}
	return checklist.StatusMissing, "No se encontró la política de privacidad"
}

var cookieVendorSignatures = []string{
	"cookieconsent", "cookiebot", "onetrust", "didomi", "iubenda", "cookieyes",
}

func detectCookiesBanner(p *page) (checklist.Status, string) {
	if p.containsAny(cookieVendorSignatures...) {
		return checklist.StatusCorrect, "Gestor de consentimiento de cookies detectado"
	}
	if linkContainsAny(p.snap.Links, []string{"cookie", "cookies"}) {
		return checklist.StatusCorrect, "Página de política de cookies enlazada"
	}
	return checklist.StatusMissing, "No se detectó banner ni política de cookies"
}

var (
	formBlockRe     = regexp.MustCompile(`(?is)<form[^>]*>.*?</form>`)
	checkboxInputRe = regexp.MustCompile(`(?is)<input[^>]+type=["']?checkbox`)
)

var consentKeywords = []string{"consent", "acepto", "privacidad", "rgpd", "gdpr"}

func detectFormConsent(p *page) (checklist.Status, string) {
	forms := formBlockRe.FindAllString(p.snap.HTML, -1)
	if len(forms) == 0 {
		return checklist.StatusPending, "No hay formularios que evaluar"
	}
	for _, form := range forms {
		lower := strings.ToLower(form)
		if !checkboxInputRe.MatchString(form) {
			continue
		}
		for _, kw := range consentKeywords {
			if strings.Contains(lower, kw) {
				return checklist.StatusCorrect, "Formulario con casilla de consentimiento"
			}
		}
	}
	return checklist.StatusImprovable, "Hay formularios sin casilla de consentimiento RGPD"
}

// linkContainsAny reports whether any link carries one of the lower-cased
// keywords as a substring.
func linkContainsAny(links []string, keywords []string) bool {
	for _, l := range links {
		lower := strings.ToLower(l)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

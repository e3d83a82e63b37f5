// Package ingest converts heterogeneous uploads (plain text, PDF, email,
// images) into a single normalized text blob plus a bounded list of image
// payloads suitable for multimodal extraction.
//
// Normalization is pure and side-effect free. One unreadable attachment never
// blocks the rest of the batch: its block is replaced with an error marker so
// extraction can still run over whatever was readable.
package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jhillyerd/enmime"
	"github.com/ledongthuc/pdf"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
)

const (
	// maxDocChars caps the text taken from a single attachment. Head
	// truncation keeps the start of the document, where bookings put the
	// fields worth extracting.
	maxDocChars = 30_000

	// maxImages bounds the number of images forwarded to the model per
	// request. Extras are silently dropped, not errored.
	maxImages = 4
)

// RawAttachment is one uploaded file: payload bytes, the client-supplied
// filename, and the declared MIME type (may be empty or wrong).
type RawAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Bundle is the normalized output consumed by the extraction engine.
type Bundle struct {
	// FreeText is the user's typed prompt, trimmed.
	FreeText string
	// DocText is the concatenation of all attachment text blocks, each
	// tagged with a [[KIND:filename]] header, separated by "---" dividers.
	DocText string
	// Images holds up to maxImages data URIs (data:image/...;base64,...).
	Images []string
}

// Empty reports whether the bundle carries nothing to extract from.
func (b Bundle) Empty() bool {
	return b.FreeText == "" && b.DocText == "" && len(b.Images) == 0
}

// Normalize converts the uploads plus free text into a Bundle.
// Returns domain.ErrValidation when both the free text and the attachment
// list are empty.
func Normalize(attachments []RawAttachment, freeText string) (Bundle, error) {
	freeText = strings.TrimSpace(freeText)
	if freeText == "" && len(attachments) == 0 {
		return Bundle{}, fmt.Errorf("ingest.Normalize: no text and no attachments: %w", domain.ErrValidation)
	}

	var blocks []string
	var images []string

	for _, a := range attachments {
		switch classify(a) {
		case docPDF:
			text, err := extractPDFText(a.Data)
			if err != nil {
				blocks = append(blocks, errorBlock(a.Name, err))
				continue
			}
			if text != "" {
				blocks = append(blocks, fmt.Sprintf("[[PDF:%s]]\n%s", a.Name, truncate(text)))
			}
		case docEmail:
			subject, body, err := extractEmail(a.Data)
			if err != nil {
				blocks = append(blocks, errorBlock(a.Name, err))
				continue
			}
			blocks = append(blocks, fmt.Sprintf("[[EMAIL:%s Subject:%s]]\n%s", a.Name, subject, truncate(body)))
		case docText:
			blocks = append(blocks, fmt.Sprintf("[[TEXT:%s]]\n%s", a.Name, truncate(string(a.Data))))
		case docImage:
			if len(images) < maxImages {
				images = append(images, dataURI(a))
			}
		default:
			// Unknown type: try a UTF-8 decode before giving up on the file.
			if utf8.Valid(a.Data) && len(bytes.TrimSpace(a.Data)) > 0 {
				blocks = append(blocks, fmt.Sprintf("[[FILE:%s]]\n%s", a.Name, truncate(string(a.Data))))
			} else {
				blocks = append(blocks, errorBlock(a.Name, fmt.Errorf("unsupported content")))
			}
		}
	}

	return Bundle{
		FreeText: freeText,
		DocText:  strings.Join(blocks, "\n\n---\n\n"),
		Images:   images,
	}, nil
}

type docClass int

const (
	docUnknown docClass = iota
	docPDF
	docEmail
	docText
	docImage
)

// classify decides how to treat an attachment: filename extension first, then
// the declared MIME type, then content sniffing as a tiebreaker.
func classify(a RawAttachment) docClass {
	// Only .eml is treated as mail. Outlook .msg is an OLE compound binary
	// the RFC 822 parser cannot read, so it takes the unknown path: text
	// exports still come through via the UTF-8 fallback, true binaries get
	// an error marker.
	name := strings.ToLower(a.Name)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return docPDF
	case strings.HasSuffix(name, ".eml"):
		return docEmail
	case strings.HasSuffix(name, ".txt"):
		return docText
	}

	declared := strings.ToLower(strings.TrimSpace(a.ContentType))
	switch {
	case declared == "application/pdf":
		return docPDF
	case declared == "message/rfc822":
		return docEmail
	case strings.HasPrefix(declared, "image/"):
		return docImage
	case strings.HasPrefix(declared, "text/"):
		return docText
	}

	sniffed := mimetype.Detect(a.Data)
	switch {
	case sniffed.Is("application/pdf"):
		return docPDF
	case strings.HasPrefix(sniffed.String(), "image/"):
		return docImage
	case strings.HasPrefix(sniffed.String(), "text/"):
		return docText
	}

	return docUnknown
}

// extractPDFText pulls the embedded text layer out of a PDF.
// The pdf library panics on some malformed files, so the recover converts
// that into an ordinary error and the caller emits an error block.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// extractEmail returns the subject and the best-effort plain-text body of an
// RFC 822 message. enmime down-converts HTML-only messages to text.
func extractEmail(data []byte) (subject, body string, err error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("parse email: %w", err)
	}
	return env.GetHeader("Subject"), strings.TrimSpace(env.Text), nil
}

// errorBlock is the marker emitted for an attachment that could not be read.
// The batch keeps going: partial failure must not block extraction from the
// other attachments.
func errorBlock(name string, err error) string {
	return fmt.Sprintf("[[ERROR reading %s]] %s", name, err.Error())
}

// truncate caps a text block at maxDocChars, keeping the head. The cut backs
// up to a rune boundary so a multi-byte rune straddling the limit never
// leaves invalid UTF-8 at the tail.
func truncate(s string) string {
	if len(s) <= maxDocChars {
		return s
	}
	cut := maxDocChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// dataURI re-encodes an image attachment verbatim as a data URI the
// completion API accepts as an image part.
func dataURI(a RawAttachment) string {
	ct := a.ContentType
	if !strings.HasPrefix(ct, "image/") {
		ct = mimetype.Detect(a.Data).String()
	}
	return fmt.Sprintf("data:%s;base64,%s", ct, base64.StdEncoding.EncodeToString(a.Data))
}

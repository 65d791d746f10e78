package controllers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"os"
	"strings"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/models"
)

// Encoding is the body encoding of a checkout submission.
type Encoding int

const (
	EncodingURLEncoded Encoding = iota
	EncodingMultipart
	EncodingJSON
)

func (e Encoding) String() string {
	switch e {
	case EncodingMultipart:
		return "multipart"
	case EncodingJSON:
		return "json"
	default:
		return "urlencoded"
	}
}

// ClassifyContentType picks the decoder for a Content-Type header. Anything
// that is neither multipart nor JSON is treated as a urlencoded form.
func ClassifyContentType(contentType string) Encoding {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "multipart/form-data"):
		return EncodingMultipart
	case strings.Contains(ct, "application/json"):
		return EncodingJSON
	default:
		return EncodingURLEncoded
	}
}

type submissionDecoder interface {
	decode(body []byte, contentType string) (*models.Submission, error)
}

func decoderFor(e Encoding) submissionDecoder {
	switch e {
	case EncodingMultipart:
		return multipartDecoder{}
	case EncodingJSON:
		return jsonDecoder{}
	default:
		return formDecoder{}
	}
}

// DecodeSubmission turns a raw request body into a Submission. A multipart
// body may leave a receipt in a temporary file; the caller owns it and must
// Release the attachment.
func DecodeSubmission(body []byte, contentType string, base64Encoded bool) (*models.Submission, error) {
	if base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(body)))
		if err != nil {
			return nil, apperrors.Malformed(fmt.Errorf("invalid base64 body: %w", err))
		}
		body = decoded
	}
	return decoderFor(ClassifyContentType(contentType)).decode(body, contentType)
}

type formDecoder struct{}

func (formDecoder) decode(body []byte, _ string) (*models.Submission, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, apperrors.Malformed(err)
	}
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return &models.Submission{Fields: fields}, nil
}

type jsonDecoder struct{}

func (jsonDecoder) decode(body []byte, _ string) (*models.Submission, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperrors.Malformed(errors.New("body must be a JSON object"))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, apperrors.Malformed(err)
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := stringifyJSON(v)
		if err != nil {
			return nil, apperrors.Malformed(fmt.Errorf("field %s: %w", k, err))
		}
		if s != "" {
			fields[k] = s
		}
	}
	return &models.Submission{Fields: fields}, nil
}

// stringifyJSON flattens one JSON value into a form field. Strings lose their
// quotes, null becomes empty, and everything else keeps its JSON text so a
// cart may arrive either as a string or as an inline array.
func stringifyJSON(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
		return "", nil
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	case v[0] == '{' || v[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(v), nil
	}
}

type multipartDecoder struct{}

func (multipartDecoder) decode(body []byte, contentType string) (sub *models.Submission, err error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, apperrors.Malformed(err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, apperrors.Malformed(errors.New("multipart boundary missing"))
	}

	sub = &models.Submission{Fields: map[string]string{}}
	defer func() {
		if err != nil {
			_ = sub.Attachment.Release()
			sub = nil
		}
	}()

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, perr := reader.NextPart()
		if perr == io.EOF {
			break
		}
		if perr != nil {
			return sub, apperrors.Malformed(perr)
		}

		name := part.FormName()
		switch {
		case part.FileName() != "":
			if name != models.FieldPaymentReceipt || sub.Attachment != nil {
				_, _ = io.Copy(io.Discard, part)
				break
			}
			att, serr := spoolReceipt(part)
			if serr != nil {
				_ = part.Close()
				return sub, apperrors.Malformed(serr)
			}
			sub.Attachment = att
		case name != "":
			value, rerr := io.ReadAll(part)
			if rerr != nil {
				_ = part.Close()
				return sub, apperrors.Malformed(rerr)
			}
			if _, seen := sub.Fields[name]; !seen {
				sub.Fields[name] = string(value)
			}
		}
		_ = part.Close()
	}
	return sub, nil
}

// spoolReceipt copies an uploaded file part into a temporary file.
func spoolReceipt(part *multipart.Part) (*models.Attachment, error) {
	f, err := os.CreateTemp("", "jpstore-receipt-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	att := &models.Attachment{Path: f.Name(), Filename: part.FileName()}

	n, err := io.Copy(f, part)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = att.Release()
		return nil, fmt.Errorf("write receipt: %w", err)
	}
	att.Size = n
	return att, nil
}

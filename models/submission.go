package models

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// Submission form fields.
const (
	FieldFinalPrice     = "finalPrice"
	FieldCurrency       = "currency"
	FieldPaymentMethod  = "paymentMethod"
	FieldEmail          = "email"
	FieldCartDetails    = "cartDetails"
	FieldWhatsappNumber = "whatsappNumber"
	FieldPhone          = "phone"
	FieldReference      = "reference"
	FieldTxID           = "txid"

	// FieldPaymentReceipt is the multipart field carrying the receipt upload.
	FieldPaymentReceipt = "paymentReceipt"
)

// Submission is a decoded checkout request. Cart is filled by validation.
type Submission struct {
	Fields     map[string]string
	Attachment *Attachment
	Cart       []CartItem
}

// Get returns the named field, empty when absent.
func (s *Submission) Get(name string) string {
	if s == nil || s.Fields == nil {
		return ""
	}
	return s.Fields[name]
}

// Attachment is a payment receipt spooled to a temporary file. The holder
// owns the file and must call Release.
type Attachment struct {
	Path     string
	Filename string
	Size     int64
}

// Exists reports whether the temporary file is still present.
func (a *Attachment) Exists() bool {
	if a == nil || a.Path == "" {
		return false
	}
	_, err := os.Stat(a.Path)
	return err == nil
}

// Open opens the temporary file for reading.
func (a *Attachment) Open() (io.ReadCloser, error) {
	return os.Open(a.Path)
}

// DisplayName is the original filename, or a generic name for nameless uploads.
func (a *Attachment) DisplayName() string {
	if a.Filename != "" {
		return a.Filename
	}
	return "payment_receipt.jpg"
}

// Release deletes the temporary file. Releasing an attachment whose file is
// already gone is not an error.
func (a *Attachment) Release() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

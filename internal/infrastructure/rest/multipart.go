package rest

import (
	"bytes"
	"fmt"
	"mime/multipart"
)

// Form is a typed multipart builder: callers enumerate the fields and
// attachment slots they mean to send instead of assembling form data
// ad hoc at the call site.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name, value string
}

type formFile struct {
	slot, name string
	content    []byte
}

// Set appends a single text field. Empty values are skipped so optional
// fields stay off the wire.
func (f *Form) Set(name, value string) *Form {
	if value != "" {
		f.fields = append(f.fields, formField{name: name, value: value})
	}
	return f
}

// SetAll appends one field per value under the same name (repeated
// fields, e.g. tags).
func (f *Form) SetAll(name string, values []string) *Form {
	for _, v := range values {
		f.Set(name, v)
	}
	return f
}

// AddFile appends a file under the given slot name.
func (f *Form) AddFile(slot, name string, content []byte) *Form {
	f.files = append(f.files, formFile{slot: slot, name: name, content: content})
	return f
}

// Encode renders the multipart body and returns it with its content
// type.
func (f *Form) Encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.slot, file.name)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", file.slot, err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("write file %s: %w", file.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

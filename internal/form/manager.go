// Package form holds the pending prediction inputs of one session.
package form

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
)

// ErrUnknownField is returned when a field name is not one of the six
// sample fields.
var ErrUnknownField = errors.New("unknown tabular field")

// Manager holds the selected image and the raw tabular field values.
// Values persist across submissions until Reset.
type Manager struct {
	image  *model.ImageAsset
	values map[string]string
	mu     sync.RWMutex
}

// NewManager creates an empty form.
func NewManager() *Manager {
	return &Manager{values: emptyValues()}
}

func emptyValues() map[string]string {
	values := make(map[string]string, len(model.TabularFields))
	for _, f := range model.TabularFields {
		values[f.Name] = ""
	}
	return values
}

// SelectImage reads the file at path and makes it the current image,
// replacing any previous selection.
func (m *Manager) SelectImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.NewUserError("Could not read the selected image.", fmt.Errorf("failed to read image %s: %w", path, err))
	}
	m.SelectImageData(filepath.Base(path), data)
	return nil
}

// SelectImageData makes data the current image. No type or size checks are
// made; the content type is only sniffed for the upload header.
func (m *Manager) SelectImageData(name string, data []byte) {
	asset := &model.ImageAsset{
		Name:        name,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}

	m.mu.Lock()
	m.image = asset
	m.mu.Unlock()

	slog.Debug("Image selected", "file", name, "bytes", len(data), "content_type", asset.ContentType)
}

// SetField stores the raw input for one of the sample fields.
func (m *Manager) SetField(name, value string) error {
	if !model.IsTabularField(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	m.mu.Lock()
	m.values[name] = value
	m.mu.Unlock()
	return nil
}

// Image returns the current image, or nil when none is selected.
func (m *Manager) Image() *model.ImageAsset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.image == nil {
		return nil
	}
	asset := *m.image
	return &asset
}

// Values returns a copy of the raw field values keyed by field name.
func (m *Manager) Values() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Sample converts the raw values into a typed sample. The first blank or
// non-numeric field, in form order, fails with ErrInvalidField.
func (m *Manager) Sample() (model.TabularSample, error) {
	values := m.Values()

	var sample model.TabularSample
	for _, f := range model.TabularFields {
		v, err := model.ParseFieldValue(values[f.Name])
		if err != nil {
			return model.TabularSample{}, common.NewUserError(
				fmt.Sprintf("Invalid value for %s.", f.Label),
				fmt.Errorf("%w: %s=%q", common.ErrInvalidField, f.Name, values[f.Name]),
			)
		}
		if err := sample.Set(f.Name, v); err != nil {
			return model.TabularSample{}, err
		}
	}
	return sample, nil
}

// Reset clears the image and all field values.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.image = nil
	m.values = emptyValues()
	m.mu.Unlock()
}

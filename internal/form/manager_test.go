package form

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
)

func fillAll(t *testing.T, m *Manager) {
	t.Helper()
	inputs := map[string]string{
		model.FieldMaximumTemperature: "33.5",
		model.FieldMinimumTemperature: "24.1",
		model.FieldTemperature:        " 28.7 ",
		model.FieldPrecipitation:      "0",
		model.FieldSoilPH:             "6.2",
		model.FieldRelativeHumidity:   "81",
	}
	for name, v := range inputs {
		require.NoError(t, m.SetField(name, v))
	}
}

func TestManager_NewIsEmpty(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.Image())

	values := m.Values()
	assert.Len(t, values, len(model.TabularFields))
	for _, f := range model.TabularFields {
		assert.Empty(t, values[f.Name], f.Name)
	}
}

func TestManager_SelectImageReplaces(t *testing.T) {
	m := NewManager()
	m.SelectImageData("first.jpg", []byte("\xff\xd8\xff\xe0 first"))
	m.SelectImageData("second.png", []byte("\x89PNG\r\n\x1a\n second"))

	img := m.Image()
	require.NotNil(t, img)
	assert.Equal(t, "second.png", img.Name)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestManager_SelectImageFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0 jpeg"), 0o600))

	m := NewManager()
	require.NoError(t, m.SelectImage(path))

	img := m.Image()
	require.NotNil(t, img)
	assert.Equal(t, "leaf.jpg", img.Name)
	assert.Equal(t, "image/jpeg", img.ContentType)

	err := m.SelectImage(filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Equal(t, "Could not read the selected image.", common.UserMessage(err, ""))
	// The previous selection survives a failed read.
	assert.Equal(t, "leaf.jpg", m.Image().Name)
}

func TestManager_SetField(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.SetField(model.FieldSoilPH, "not a number"))
	assert.Equal(t, "not a number", m.Values()[model.FieldSoilPH])

	err := m.SetField("Wind_Speed", "3")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.NotContains(t, m.Values(), "Wind_Speed")
}

func TestManager_ValuesIsCopy(t *testing.T) {
	m := NewManager()
	values := m.Values()
	values[model.FieldTemperature] = "99"
	assert.Empty(t, m.Values()[model.FieldTemperature])
}

func TestManager_Sample(t *testing.T) {
	m := NewManager()
	fillAll(t, m)

	sample, err := m.Sample()
	require.NoError(t, err)
	assert.Equal(t, model.TabularSample{
		MaximumTemperature: 33.5,
		MinimumTemperature: 24.1,
		Temperature:        28.7,
		Precipitation:      0,
		SoilPH:             6.2,
		RelativeHumidity:   81,
	}, sample)

	// Values persist across conversions.
	again, err := m.Sample()
	require.NoError(t, err)
	assert.Equal(t, sample, again)
}

func TestManager_SampleInvalid(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		message string
	}{
		{name: "blank", field: model.FieldPrecipitation, value: "", message: "Invalid value for Precipitation."},
		{name: "text", field: model.FieldSoilPH, value: "acidic", message: "Invalid value for Soil pH."},
		{name: "whitespace", field: model.FieldRelativeHumidity, value: "   ", message: "Invalid value for Humidity."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			fillAll(t, m)
			require.NoError(t, m.SetField(tt.field, tt.value))

			_, err := m.Sample()
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidField)
			assert.Equal(t, tt.message, common.UserMessage(err, ""))
		})
	}
}

func TestManager_Reset(t *testing.T) {
	m := NewManager()
	fillAll(t, m)
	m.SelectImageData("leaf.png", []byte("data"))

	m.Reset()

	assert.Nil(t, m.Image())
	for _, v := range m.Values() {
		assert.Empty(t, v)
	}
}

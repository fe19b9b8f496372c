package firestore

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/paddy/internal/model"
	firestoreapi "google.golang.org/api/firestore/v1"
)

var errMalformedDocument = errors.New("malformed prediction document")

func stringValue(s string) firestoreapi.Value {
	// An empty string still has to be sent to keep the field's type.
	return firestoreapi.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
}

func doubleValue(f float64) firestoreapi.Value {
	return firestoreapi.Value{DoubleValue: f, ForceSendFields: []string{"DoubleValue"}}
}

func timestampValue(t time.Time) firestoreapi.Value {
	return firestoreapi.Value{TimestampValue: t.UTC().Format(time.RFC3339Nano)}
}

// encodeRecord builds the document for a record: type, result, timestamp and
// the tabular data map when present.
func encodeRecord(record model.PredictionRecord) *firestoreapi.Document {
	fields := map[string]firestoreapi.Value{
		"type":      stringValue(string(record.Type)),
		"result":    stringValue(record.Result),
		"timestamp": timestampValue(record.Timestamp),
	}
	if record.Data != nil {
		data := make(map[string]firestoreapi.Value, len(model.TabularFields))
		for name, v := range record.Data.Map() {
			data[name] = doubleValue(v)
		}
		fields["data"] = firestoreapi.Value{MapValue: &firestoreapi.MapValue{Fields: data}}
	}
	return &firestoreapi.Document{Fields: fields}
}

// decodeRecord converts a document back into a record. Documents written by
// the web client store measurements as strings; those are parsed too.
func decodeRecord(doc *firestoreapi.Document) (model.PredictionRecord, error) {
	var record model.PredictionRecord
	if doc == nil {
		return record, errMalformedDocument
	}

	record.ID = documentID(doc.Name)

	typ := doc.Fields["type"].StringValue
	if !model.PredictionType(typ).IsValid() {
		return record, fmt.Errorf("%w: type %q", errMalformedDocument, typ)
	}
	record.Type = model.PredictionType(typ)
	record.Result = doc.Fields["result"].StringValue

	if ts := doc.Fields["timestamp"].TimestampValue; ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return record, fmt.Errorf("%w: timestamp: %w", errMalformedDocument, err)
		}
		record.Timestamp = parsed
	} else if doc.CreateTime != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, doc.CreateTime); err == nil {
			record.Timestamp = parsed
		}
	}

	if data := doc.Fields["data"].MapValue; data != nil && record.Type == model.PredictionTabular {
		values := make(map[string]float64, len(data.Fields))
		for name, v := range data.Fields {
			f, ok := asFloat(v)
			if !ok {
				continue
			}
			values[name] = f
		}
		sample := model.SampleFromMap(values)
		record.Data = &sample
	}

	return record, nil
}

// asFloat reads a measurement stored as a double, an integer or a numeric
// string. A zero number arrives with every value field empty.
func asFloat(v firestoreapi.Value) (float64, bool) {
	switch {
	case v.DoubleValue != 0:
		return v.DoubleValue, true
	case v.IntegerValue != 0:
		return float64(v.IntegerValue), true
	case v.StringValue != "":
		f, err := model.ParseFieldValue(v.StringValue)
		return f, err == nil
	case v.MapValue == nil && v.ArrayValue == nil && v.GeoPointValue == nil &&
		v.NullValue == "" && v.TimestampValue == "" && v.ReferenceValue == "" &&
		v.BytesValue == "" && !v.BooleanValue:
		return 0, true
	}
	return 0, false
}

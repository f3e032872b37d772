package modem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// document is a parsed response that values can be looked up in by name.
type document interface {
	lookup(name string) (string, bool)
	logger() *zap.Logger
}

// xmlDocument resolves names as direct children of the root element.
type xmlDocument struct {
	root *etree.Element
	log  *zap.Logger
}

func parseXML(body []byte, log *zap.Logger) (*xmlDocument, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("failed to parse XML response: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("XML response has no root element")
	}
	return &xmlDocument{root: root, log: log}, nil
}

func (d *xmlDocument) lookup(name string) (string, bool) {
	el := d.root.SelectElement(name)
	if el == nil {
		return "", false
	}
	return strings.TrimSpace(el.Text()), true
}

func (d *xmlDocument) logger() *zap.Logger { return d.log }

// rootTag returns the tag of the document element, "error" for vendor error documents.
func (d *xmlDocument) rootTag() string {
	return d.root.Tag
}

// jsonDocument resolves names as dotted paths, e.g. "wwan.signalStrength.rssi".
type jsonDocument struct {
	c   *gabs.Container
	log *zap.Logger
}

func parseJSON(body []byte, log *zap.Logger) (*jsonDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	c, err := gabs.ParseJSONDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return &jsonDocument{c: c, log: log}, nil
}

func (d *jsonDocument) lookup(path string) (string, bool) {
	if !d.c.ExistsP(path) {
		return "", false
	}
	switch v := d.c.Path(path).Data().(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		// null, objects and arrays are not scalar fields
		return "", false
	}
}

func (d *jsonDocument) logger() *zap.Logger { return d.log }

// field returns the raw text of a field.
func field(doc document, name string) (string, bool) {
	v, ok := doc.lookup(name)
	if !ok {
		doc.logger().Debug("field not present", zap.String("field", name))
	}
	return v, ok
}

// number is the set of types fields can be coerced to.
type number interface {
	int64 | float64
}

// fieldAs parses a field strictly, any trailing garbage makes it absent.
func fieldAs[T number](doc document, name string) (T, bool) {
	raw, ok := field(doc, name)
	if !ok {
		var zero T
		return zero, false
	}
	return parseNumber[T](doc, name, strings.TrimSpace(raw))
}

// fieldAsUnit parses a field after stripping a trailing "dBm" or "dB".
func fieldAsUnit[T number](doc document, name string) (T, bool) {
	raw, ok := field(doc, name)
	if !ok {
		var zero T
		return zero, false
	}
	return parseNumber[T](doc, name, stripUnit(raw))
}

// hasRequiredFields reports whether every name is present, logging the missing ones.
func hasRequiredFields(doc document, names ...string) bool {
	var missing []string
	for _, name := range names {
		if _, ok := doc.lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		doc.logger().Warn("response is missing required fields", zap.Strings("fields", missing))
		return false
	}
	return true
}

var units = []string{"dBm", "dB"}

func stripUnit(v string) string {
	v = strings.TrimSpace(v)
	for _, unit := range units {
		if strings.HasSuffix(v, unit) {
			return strings.TrimSpace(strings.TrimSuffix(v, unit))
		}
	}
	return v
}

func parseNumber[T number](doc document, name, raw string) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			doc.logger().Debug("malformed field", zap.String("field", name), zap.String("value", raw))
			return zero, false
		}
		return T(f), true
	default:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			doc.logger().Debug("malformed field", zap.String("field", name), zap.String("value", raw))
			return zero, false
		}
		return T(i), true
	}
}

// fieldParser collects the first failure while reading required numeric fields.
type fieldParser struct {
	doc document
	err error
}

func (p *fieldParser) required(name string) int64 {
	v, ok := fieldAs[int64](p.doc, name)
	if !ok && p.err == nil {
		p.err = errorf(KindDataParsing, name, "required field %q missing or not numeric", name)
	}
	return v
}

func (p *fieldParser) requiredUnit(name string) int64 {
	v, ok := fieldAsUnit[int64](p.doc, name)
	if !ok && p.err == nil {
		p.err = errorf(KindDataParsing, name, "required field %q missing or not numeric", name)
	}
	return v
}

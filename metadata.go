package mdtiff

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// metadataItem is one entry of the dimension metadata record.
type metadataItem struct {
	Name  string
	Role  string
	Value string
}

// marshalMetadata renders items as the compact XML record stored in the
// metadata tag.
func marshalMetadata(items []metadataItem) string {
	var sb strings.Builder
	sb.WriteString("<GDALMetadata>")
	for _, it := range items {
		sb.WriteString(`<Item name="`)
		xmlEscape(&sb, it.Name)
		sb.WriteString(`"`)
		if it.Role != "" {
			sb.WriteString(` role="`)
			xmlEscape(&sb, it.Role)
			sb.WriteString(`"`)
		}
		sb.WriteString(">")
		xmlEscape(&sb, it.Value)
		sb.WriteString("</Item>")
	}
	sb.WriteString("</GDALMetadata>")
	return sb.String()
}

func xmlEscape(sb *strings.Builder, s string) {
	_ = xml.EscapeText(sb, []byte(s))
}

type xmlMetadataDoc struct {
	XMLName xml.Name          `xml:"GDALMetadata"`
	Items   []xmlMetadataItem `xml:"Item"`
}

type xmlMetadataItem struct {
	Name   string `xml:"name,attr"`
	Role   string `xml:"role,attr"`
	Domain string `xml:"domain,attr"`
	Value  string `xml:",chardata"`
}

// parseMetadata decodes a metadata record. Items carrying a non-default
// domain are dropped.
func parseMetadata(s string) ([]metadataItem, error) {
	var doc xmlMetadataDoc
	if err := xml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("parsing metadata record: %w", err)
	}
	items := make([]metadataItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		if it.Domain != "" || it.Name == "" {
			continue
		}
		items = append(items, metadataItem{Name: it.Name, Role: it.Role, Value: it.Value})
	}
	return items, nil
}

// formatIndexValue renders one indexing-variable value: integral types as a
// plain integer, floating point with the fixed %f form.
func formatIndexValue(dt DataType, v float64) string {
	if dt.IsInteger() {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%f", v)
}

// generateMetadata builds the record of one directory. The main directory
// carries the full dimension schema; later directories only identify their
// slow-dimension slice.
func (a *Array) generateMetadata(mainIFD bool, coords []uint64) string {
	n := len(a.dims)
	items := []metadataItem{{Name: "VARIABLE_NAME", Value: a.name}}

	for j, dim := range a.dims {
		slow := j < n-2
		key := func(suffix string) string {
			return fmt.Sprintf("DIMENSION_%d_%s", j, suffix)
		}

		if mainIFD || slow {
			items = append(items, metadataItem{Name: key("NAME"), Value: dim.name})
		}

		if mainIFD {
			items = append(items, metadataItem{Name: key("SIZE"), Value: strconv.FormatUint(dim.size, 10)})
			items = append(items, metadataItem{Name: key("BLOCK_SIZE"), Value: strconv.FormatUint(a.blockSize[j], 10)})
			if dim.typ != "" {
				items = append(items, metadataItem{Name: key("TYPE"), Value: dim.typ})
			}
			if dim.direction != "" {
				items = append(items, metadataItem{Name: key("DIRECTION"), Value: dim.direction})
			}
		}

		if !slow {
			continue
		}

		items = append(items, metadataItem{Name: key("IDX"), Value: strconv.FormatUint(coords[j], 10)})

		iv := dim.indexing
		if iv == nil {
			continue
		}
		if mainIFD {
			if iv.isString {
				items = append(items, metadataItem{Name: key("DATATYPE"), Value: "String"})
				items = append(items, metadataItem{Name: key("VALUES"), Value: strings.Join(iv.strs, ",")})
			} else {
				items = append(items, metadataItem{Name: key("DATATYPE"), Value: iv.dt.String()})
				parts := make([]string, len(iv.nums))
				for i, v := range iv.nums {
					parts[i] = formatIndexValue(iv.dt, v)
				}
				items = append(items, metadataItem{Name: key("VALUES"), Value: strings.Join(parts, ",")})
			}
		}
		idx := int(coords[j])
		if iv.isString {
			if idx < len(iv.strs) {
				items = append(items, metadataItem{Name: key("VAL"), Value: iv.strs[idx]})
			}
		} else if idx < len(iv.nums) {
			items = append(items, metadataItem{Name: key("VAL"), Value: formatIndexValue(iv.dt, iv.nums[idx])})
		}
	}

	names := make([]string, 0, len(a.attrs))
	for name := range a.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		items = append(items, metadataItem{Name: name, Value: a.attrs[name].literal()})
	}

	if a.offset != nil {
		items = append(items, metadataItem{Name: "OFFSET", Role: "offset", Value: fmt.Sprintf("%.18g", *a.offset)})
	}
	if a.scale != nil {
		items = append(items, metadataItem{Name: "SCALE", Role: "scale", Value: fmt.Sprintf("%.18g", *a.scale)})
	}
	if a.unit != "" {
		items = append(items, metadataItem{Name: "UNITTYPE", Role: "unittype", Value: a.unit})
	}

	return marshalMetadata(items)
}

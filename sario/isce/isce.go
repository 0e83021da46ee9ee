// Package isce reads ISCE sidecar metadata (.xml property lists).
//
// The sidecar is a tree of <property name="..."><value>...</value></property>
// elements; WIDTH and FILE_LENGTH are synthesized from the width and length
// properties.
package isce

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/util"
)

type property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type propertyList struct {
	Properties []property `xml:"property"`
}

// ParseXML reads an ISCE .xml sidecar into a flat attribute mapping with
// WIDTH and FILE_LENGTH synthesized.
func ParseXML(r io.Reader) (*util.AttrMap, error) {
	var root propertyList
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("property list decode failed: %w", err)
	}

	m := util.NewAttrMap()
	for _, p := range root.Properties {
		m.Set(p.Name, p.Value)
	}

	if err := lift(m, "width", api.KeyWidth); err != nil {
		return nil, err
	}
	if err := lift(m, "length", api.KeyFileLength); err != nil {
		return nil, err
	}
	return m, nil
}

// lift copies a source property to its canonical key.
func lift(m *util.AttrMap, from, to string) error {
	val, has := m.Get(from)
	if !has {
		return fmt.Errorf("%w: %s", api.ErrMissingKey, from)
	}
	m.Set(to, val)
	return nil
}

// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/astrofab/datalinker/model"
)

// VOTableContentType is the MIME type of a DataLink VOTable response.
const VOTableContentType = "application/x-votable+xml;content=datalink"

const voTableNamespace = "http://www.ivoa.net/xml/VOTable/v1.3"

// voTable and friends model the subset of the VOTable schema a DataLink
// response uses: one results RESOURCE holding the link table and one meta
// RESOURCE per service descriptor.
type voTable struct {
	XMLName   xml.Name     `xml:"VOTABLE"`
	Version   string       `xml:"version,attr"`
	Namespace string       `xml:"xmlns,attr"`
	Resources []voResource `xml:"RESOURCE"`
}

type voResource struct {
	Type   string        `xml:"type,attr"`
	ID     string        `xml:"ID,attr,omitempty"`
	Utype  string        `xml:"utype,attr,omitempty"`
	Params []voParam     `xml:"PARAM,omitempty"`
	Groups []voGroup     `xml:"GROUP,omitempty"`
	Table  *voLinksTable `xml:"TABLE,omitempty"`
}

type voLinksTable struct {
	Fields []voField `xml:"FIELD"`
	Data   voData    `xml:"DATA"`
}

type voData struct {
	TableData voTableData `xml:"TABLEDATA"`
}

type voTableData struct {
	Rows []voRow `xml:"TR"`
}

type voRow struct {
	Cells []string `xml:"TD"`
}

type voField struct {
	Name      string `xml:"name,attr"`
	Datatype  string `xml:"datatype,attr"`
	ArraySize string `xml:"arraysize,attr,omitempty"`
	Unit      string `xml:"unit,attr,omitempty"`
	UCD       string `xml:"ucd,attr,omitempty"`
}

type voParam struct {
	Name      string `xml:"name,attr"`
	Datatype  string `xml:"datatype,attr"`
	ArraySize string `xml:"arraysize,attr,omitempty"`
	Unit      string `xml:"unit,attr,omitempty"`
	UCD       string `xml:"ucd,attr,omitempty"`
	Value     string `xml:"value,attr"`
}

type voGroup struct {
	Name   string    `xml:"name,attr"`
	Params []voParam `xml:"PARAM"`
}

// linkFields is the DataLink table schema. Field order is part of the
// external contract and must not change.
var linkFields = []voField{
	{Name: "ID", Datatype: "char", ArraySize: "*", UCD: "meta.id;meta.main"},
	{Name: "access_url", Datatype: "char", ArraySize: "*", UCD: "meta.ref.url"},
	{Name: "service_def", Datatype: "char", ArraySize: "*", UCD: "meta.ref"},
	{Name: "error_message", Datatype: "char", ArraySize: "*", UCD: "meta.code.error"},
	{Name: "description", Datatype: "char", ArraySize: "*", UCD: "meta.note"},
	{Name: "semantics", Datatype: "char", ArraySize: "*", UCD: "meta.code"},
	{Name: "content_type", Datatype: "char", ArraySize: "*", UCD: "meta.code.mime"},
	{Name: "content_length", Datatype: "long", Unit: "byte", UCD: "phys.size;meta.file"},
}

// RenderVOTable serializes an assembled response into a DataLink VOTable
// document. It fails only on rows violating the exactly-one-of invariant,
// which indicates an assembler bug.
func RenderVOTable(response *Response) ([]byte, error) {
	rows := make([]voRow, 0, len(response.Links))
	for _, link := range response.Links {
		if err := checkLink(link); err != nil {
			return nil, err
		}
		rows = append(rows, voRow{Cells: linkCells(link)})
	}

	document := voTable{
		Version:   "1.3",
		Namespace: voTableNamespace,
		Resources: []voResource{
			{
				Type: "results",
				Table: &voLinksTable{
					Fields: linkFields,
					Data:   voData{TableData: voTableData{Rows: rows}},
				},
			},
		},
	}
	for _, descriptor := range response.Descriptors {
		document.Resources = append(document.Resources, descriptorResource(descriptor))
	}

	body, err := xml.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// checkLink enforces the row invariant: exactly one of access_url,
// service_def and error_message is set.
func checkLink(link model.Link) error {
	populated := 0
	for _, value := range []string{link.AccessURL, link.ServiceDef, link.ErrorMessage} {
		if value != "" {
			populated++
		}
	}
	if populated != 1 {
		return fmt.Errorf("%w: row %q has %d populated", ErrMalformedLink, link.Semantics, populated)
	}
	return nil
}

func linkCells(link model.Link) []string {
	length := ""
	if link.ContentLength != nil {
		length = strconv.FormatInt(*link.ContentLength, 10)
	}
	return []string{
		link.ID,
		link.AccessURL,
		link.ServiceDef,
		link.ErrorMessage,
		link.Description,
		link.Semantics,
		link.ContentType,
		length,
	}
}

// descriptorResource renders a service descriptor as a sibling meta
// RESOURCE block with its declared input parameters.
func descriptorResource(descriptor model.ServiceDescriptor) voResource {
	inputs := make([]voParam, 0, len(descriptor.Params))
	for _, param := range descriptor.Params {
		inputs = append(inputs, voParam{
			Name:      param.Name,
			Datatype:  param.Datatype,
			ArraySize: param.ArraySize,
			Unit:      param.Unit,
			UCD:       param.UCD,
			Value:     param.Value,
		})
	}
	return voResource{
		Type:  "meta",
		ID:    descriptor.ID,
		Utype: "adhoc:service",
		Params: []voParam{
			{Name: "standardID", Datatype: "char", ArraySize: "*", Value: descriptor.StandardID},
			{Name: "accessURL", Datatype: "char", ArraySize: "*", Value: descriptor.AccessURL},
		},
		Groups: []voGroup{{Name: "inputParams", Params: inputs}},
	}
}

// parseVOTable is the inverse of RenderVOTable for the fields this service
// emits. The server does not consume VOTables; this exists so tests can
// verify a rendered document round-trips.
func parseVOTable(data []byte) (*Response, error) {
	var document voTable
	if err := xml.Unmarshal(data, &document); err != nil {
		return nil, err
	}

	response := &Response{}
	for _, resource := range document.Resources {
		switch resource.Type {
		case "results":
			if resource.Table == nil {
				continue
			}
			for _, row := range resource.Table.Data.TableData.Rows {
				link, err := cellsToLink(row.Cells)
				if err != nil {
					return nil, err
				}
				response.Links = append(response.Links, link)
			}
		case "meta":
			response.Descriptors = append(response.Descriptors, resourceToDescriptor(resource))
		}
	}
	if len(response.Links) > 0 {
		response.ID = response.Links[0].ID
	}
	return response, nil
}

func cellsToLink(cells []string) (model.Link, error) {
	if len(cells) != len(linkFields) {
		return model.Link{}, fmt.Errorf("expected %d cells per row, got %d", len(linkFields), len(cells))
	}
	link := model.Link{
		ID:           cells[0],
		AccessURL:    cells[1],
		ServiceDef:   cells[2],
		ErrorMessage: cells[3],
		Description:  cells[4],
		Semantics:    cells[5],
		ContentType:  cells[6],
	}
	if cells[7] != "" {
		length, err := strconv.ParseInt(cells[7], 10, 64)
		if err != nil {
			return model.Link{}, fmt.Errorf("bad content_length cell: %w", err)
		}
		link.ContentLength = &length
	}
	return link, nil
}

func resourceToDescriptor(resource voResource) model.ServiceDescriptor {
	descriptor := model.ServiceDescriptor{ID: resource.ID}
	for _, param := range resource.Params {
		switch param.Name {
		case "standardID":
			descriptor.StandardID = param.Value
		case "accessURL":
			descriptor.AccessURL = param.Value
		}
	}
	for _, group := range resource.Groups {
		if group.Name != "inputParams" {
			continue
		}
		for _, param := range group.Params {
			descriptor.Params = append(descriptor.Params, model.ServiceParam{
				Name:      param.Name,
				Datatype:  param.Datatype,
				ArraySize: param.ArraySize,
				Unit:      param.Unit,
				UCD:       param.UCD,
				Value:     param.Value,
			})
		}
	}
	return descriptor
}

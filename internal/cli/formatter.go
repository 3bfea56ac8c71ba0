package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var SupportedOutputFormats = []string{FormatTable, FormatJSON, FormatYAML}

// OutputFormatter renders rows as table, JSON or YAML. For JSON and YAML each row
// becomes an object keyed by the lower-cased header.
type OutputFormatter struct {
	header []string
	data   [][]string
	format string
}

func NewOutputFormatter(format string) (*OutputFormatter, error) {
	for _, supportedFormat := range SupportedOutputFormats {
		if supportedFormat == format {
			return &OutputFormatter{
				format: format,
			}, nil
		}
	}
	return nil, fmt.Errorf("Output format '%s' is not supported: please choose between '%s'",
		format, strings.Join(SupportedOutputFormats, "', '"))
}

func (of *OutputFormatter) Header(header ...string) error {
	if of.data != nil {
		if err := of.headerColumnCheck(len(of.data[0]), len(header)); err != nil {
			return err
		}
	}
	of.header = header
	return nil
}

func (of *OutputFormatter) AddRow(data ...string) error {
	if of.header != nil {
		if err := of.headerColumnCheck(len(data), len(of.header)); err != nil {
			return err
		}
	}
	of.data = append(of.data, data)
	return nil
}

func (of *OutputFormatter) headerColumnCheck(columnCnt, headerCnt int) error {
	if columnCnt != headerCnt {
		return fmt.Errorf("Header count differs with column count: %d != %d", headerCnt, columnCnt)
	}
	return nil
}

func (of *OutputFormatter) Output(writer io.Writer) error {
	switch of.format {
	case FormatTable:
		of.tableOutput(writer)
		return nil
	default:
		data, err := of.serializeableData()
		if err != nil {
			return err
		}
		return of.marshal(writer, data)
	}
}

// OutputObject renders a structured value. Table format falls back to YAML as nested
// values cannot be shown as rows.
func (of *OutputFormatter) OutputObject(writer io.Writer, obj interface{}) error {
	return of.marshal(writer, obj)
}

func (of *OutputFormatter) marshal(writer io.Writer, obj interface{}) error {
	var out []byte
	var err error
	if of.format == FormatJSON {
		out, err = json.MarshalIndent(obj, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = yaml.Marshal(toGeneric(obj))
	}
	if err != nil {
		return err
	}
	_, err = writer.Write(out)
	return err
}

func (of *OutputFormatter) tableOutput(writer io.Writer) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(of.header)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAutoWrapText(false)
	table.AppendBulk(of.data)
	table.Render()
}

func (of *OutputFormatter) serializeableData() ([]map[string]string, error) {
	if len(of.header) == 0 {
		return nil, fmt.Errorf("No headers defined: cannot convert data to map")
	}
	data := []map[string]string{}
	for _, dataRow := range of.data {
		dataTuple := make(map[string]string)
		for idxCol, hdr := range of.header {
			dataTuple[strings.ToLower(hdr)] = dataRow[idxCol]
		}
		data = append(data, dataTuple)
	}
	return data, nil
}

// toGeneric converts structs into maps by a JSON round trip so that YAML output uses the JSON field names.
func toGeneric(obj interface{}) interface{} {
	raw, err := json.Marshal(obj)
	if err != nil {
		return obj
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return obj
	}
	return generic
}

package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/beevik/etree"
	"github.com/mcncl/omconv/internal/errors" // Custom errors package
	"github.com/mcncl/omconv/internal/models"
)

// ParseInstance decodes JSON data from an io.Reader into a plain JSON value
// (maps, slices, strings, bools, json.Number), the form the schema validator
// works on.
func ParseInstance(reader io.Reader) (any, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // Ensure numbers are read as json.Number

	var root any
	if err := decoder.Decode(&root); err != nil {
		if stderrors.Is(err, io.EOF) { // nothing but whitespace before EOF
			return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		var syntaxError *json.SyntaxError
		if stderrors.As(err, &syntaxError) {
			return nil, errors.NewParsingError(
				fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
				errors.ErrInvalidJSON,
			)
		}
		if stderrors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
		}
		return nil, errors.NewParsingError("failed to decode JSON", err)
	}

	// Only whitespace may follow the first value.
	if decoder.More() {
		var trailing any
		if err := decoder.Decode(&trailing); err != nil {
			if !stderrors.Is(err, io.EOF) {
				return nil, errors.NewParsingError("invalid trailing data after first JSON value", errors.ErrInvalidJSON)
			}
		} else {
			return nil, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
		}
	}

	return root, nil
}

// ParseJSON decodes an OpenMath JSON document into its value.
func ParseJSON(data []byte) (models.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewInputError("input is empty", errors.ErrEmptyInput)
	}
	// Syntax problems are reported with an offset before the document is
	// interpreted as OpenMath.
	if _, err := ParseInstance(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	node, err := models.UnmarshalNode(data)
	if err != nil {
		return nil, errors.NewConversionError("input is not an OpenMath JSON value", err)
	}
	return node, nil
}

// ParseXML parses an OpenMath XML document and returns its root element.
func ParseXML(data []byte) (*etree.Element, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewInputError("input is empty", errors.ErrEmptyInput)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("XML syntax error: %v", err), errors.ErrInvalidXML)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.NewParsingError("failed to parse XML", errors.ErrNoElement)
	}
	return root, nil
}

// ReadFile reads the whole of a non-empty input file.
func ReadFile(filePath string) ([]byte, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		// Check if the file doesn't exist
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to read file '%s'", filePath), err)
	}
	return data, nil
}

// ReadInput reads the named file, or stdin when filePath is empty. A nil
// stdin means nothing was piped.
func ReadInput(filePath string, stdin io.Reader) ([]byte, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	if stdin == nil {
		return nil, errors.NewInputError("no input", errors.ErrNoInput)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, errors.NewInputError("failed to read from stdin", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewInputError("stdin is empty", errors.ErrEmptyInput)
	}
	return data, nil
}

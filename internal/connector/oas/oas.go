// Package oas exposes the connector's bundled OpenAPI document. The document
// is parsed and validated once per process; everything handed out is read-only.
package oas

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	PackageName = "@hyperledger/cactus-plugin-ledger-connector-chia"

	DeployContractSolidityBytecodePath = "/api/v1/plugins/" + PackageName + "/deploy-contract-solidity-bytecode"
	GetPrometheusExporterMetricsPath   = "/api/v1/plugins/" + PackageName + "/get-prometheus-exporter-metrics"

	// cactusExtension carries the route the endpoint is mounted on.
	cactusExtension = "x-hyperledger-cactus"
)

//go:embed openapi.json
var raw []byte

var (
	once    sync.Once
	doc     *openapi3.T
	loadErr error
)

// OperationMeta is the route metadata of one operation.
type OperationMeta struct {
	Path          string
	VerbLowerCase string
	OperationID   string
}

// Load parses and validates an OpenAPI document.
func Load(data []byte) (*openapi3.T, error) {
	d, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("error loading openapi document: %w", err)
	}
	if err := d.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return d, nil
}

// Doc returns the bundled document.
func Doc() (*openapi3.T, error) {
	once.Do(func() { doc, loadErr = Load(raw) })
	return doc, loadErr
}

// JSON returns the bundled document as shipped.
func JSON() []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

// Lookup returns the metadata of the operation declared under oasPath for method.
func Lookup(oasPath, method string) (OperationMeta, error) {
	d, err := Doc()
	if err != nil {
		return OperationMeta{}, err
	}
	return LookupIn(d, oasPath, method)
}

// LookupIn is Lookup against an arbitrary document.
func LookupIn(d *openapi3.T, oasPath, method string) (OperationMeta, error) {
	item := d.Paths.Value(oasPath)
	if item == nil {
		return OperationMeta{}, fmt.Errorf("openapi: no path %s", oasPath)
	}
	op := item.GetOperation(strings.ToUpper(method))
	if op == nil {
		return OperationMeta{}, fmt.Errorf("openapi: no %s operation under %s", method, oasPath)
	}
	ext, _ := op.Extensions[cactusExtension].(map[string]any)
	httpExt, _ := ext["http"].(map[string]any)
	path, _ := httpExt["path"].(string)
	verb, _ := httpExt["verbLowerCase"].(string)
	if path == "" || verb == "" {
		return OperationMeta{}, fmt.Errorf("openapi: %s %s lacks %s.http", method, oasPath, cactusExtension)
	}
	return OperationMeta{Path: path, VerbLowerCase: verb, OperationID: op.OperationID}, nil
}

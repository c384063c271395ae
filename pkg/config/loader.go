package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file, picking the format by extension:
// .json, .yaml/.yml, or .hcl. A .fileopsrc file is tried as YAML first
// and HCL second.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var fc *fileConfig

	if ext == ".fileopsrc" || filepath.Base(path) == ".fileopsrc" {
		fc, err = parseYAML(data)
		if err != nil {
			var hclErr error
			fc, hclErr = parseHCL(data, path)
			if hclErr != nil {
				return nil, errors.Errorf("parsing .fileopsrc as YAML or HCL: %w", hclErr)
			}
		}
	} else {
		switch ext {
		case ".json":
			fc, err = parseJSON(data)
		case ".yaml", ".yml":
			fc, err = parseYAML(data)
		case ".hcl":
			fc, err = parseHCL(data, path)
		default:
			return nil, errors.Errorf("unsupported config extension %q", ext)
		}
		if err != nil {
			return nil, err
		}
	}

	cfg, err := fc.resolve()
	if err != nil {
		return nil, err
	}
	cfg.location = path
	return cfg, nil
}

func parseJSON(data []byte) (*fileConfig, error) {
	var fc fileConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &fc, nil
}

func parseYAML(data []byte) (*fileConfig, error) {
	var fc fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &fc, nil
}

func parseHCL(data []byte, filename string) (*fileConfig, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &fc)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &fc, nil
}

// evalContext exposes the process environment to HCL expressions, so
// paths like "${env.HOME}/.fileops/trash" work in config files
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	vars := map[string]cty.Value{}
	if len(env) > 0 {
		vars["env"] = cty.MapVal(env)
	}
	return &hcl.EvalContext{Variables: vars}
}

// Package catalog хранит шаблоны многослойных стен и свойства материалов.
// Записи каталога неизменяемы: Template и Material возвращают копии.
package catalog

import (
	"fmt"
	"os"
	"sort"

	kerr "plan-kernel/internal/common/errors"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Types
// ============================================================

type LayerFunction string

const (
	FunctionStructure      LayerFunction = "structure"
	FunctionInsulation     LayerFunction = "insulation"
	FunctionFinishInterior LayerFunction = "finish_interior"
	FunctionFinishExterior LayerFunction = "finish_exterior"
	FunctionAirSpace       LayerFunction = "air_space"
	FunctionVaporControl   LayerFunction = "vapor_control"
)

// GenericTemplateID: однослойный шаблон для стен, заданных только толщиной.
const GenericTemplateID = "generic"

// Сопротивления теплообмену поверхностей, м²·K/Вт.
const (
	surfaceResistanceInside  = 0.13
	surfaceResistanceOutside = 0.04
)

type WallLayer struct {
	MaterialID string        `json:"materialId" yaml:"material"`
	Thickness  float64       `json:"thickness" yaml:"thickness"`
	Function   LayerFunction `json:"function" yaml:"function"`
}

type TemplateProperties struct {
	IsExternal           bool    `json:"isExternal" yaml:"external"`
	LoadBearing          bool    `json:"loadBearing" yaml:"load_bearing"`
	FireRating           string  `json:"fireRating" yaml:"fire_rating"`
	ThermalTransmittance float64 `json:"thermalTransmittance" yaml:"u_value"`
}

type WallTemplate struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Layers     []WallLayer        `json:"layers" yaml:"layers"`
	Properties TemplateProperties `json:"properties" yaml:"properties"`
}

// TotalThickness: сумма толщин слоев.
func (t WallTemplate) TotalThickness() float64 {
	var sum float64
	for _, l := range t.Layers {
		sum += l.Thickness
	}
	return sum
}

func (t WallTemplate) clone() WallTemplate {
	t.Layers = append([]WallLayer(nil), t.Layers...)
	return t
}

type Material struct {
	ID                  string  `json:"id" yaml:"id"`
	Name                string  `json:"name" yaml:"name"`
	Conductivity        float64 `json:"conductivity" yaml:"conductivity"` // Вт/(м·K)
	Density             float64 `json:"density" yaml:"density"`           // кг/м³
	CompressiveStrength float64 `json:"compressiveStrength" yaml:"strength"` // МПа
}

// ============================================================
// Catalog
// ============================================================

type Catalog struct {
	templates map[string]WallTemplate
	materials map[string]Material
}

// Default возвращает встроенный каталог.
func Default() *Catalog {
	c := &Catalog{
		templates: make(map[string]WallTemplate),
		materials: make(map[string]Material),
	}
	for _, m := range defaultMaterials() {
		c.materials[m.ID] = m
	}
	for _, t := range defaultTemplates() {
		c.templates[t.ID] = c.withDerived(t)
	}
	return c
}

// Template возвращает копию шаблона.
func (c *Catalog) Template(id string) (WallTemplate, error) {
	t, ok := c.templates[id]
	if !ok {
		return WallTemplate{}, kerr.New(kerr.KindTemplateNotFound, "unknown wall template").With("templateId", id)
	}
	return t.clone(), nil
}

func (c *Catalog) Material(id string) (Material, bool) {
	m, ok := c.materials[id]
	return m, ok
}

// Templates возвращает все шаблоны, отсортированные по id.
func (c *Catalog) Templates() []WallTemplate {
	out := make([]WallTemplate, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve выбирает шаблон для стены. Пустой id дает однослойную стену
// запрошенной толщины; при заданном id толщина шаблона главнее запрошенной.
func (c *Catalog) Resolve(templateID string, thickness float64) (WallTemplate, error) {
	if templateID == "" || templateID == GenericTemplateID {
		if thickness <= 0 {
			return WallTemplate{}, kerr.New(kerr.KindInvalidGeometry, "wall thickness must be positive").With("thickness", thickness)
		}
		return c.withDerived(WallTemplate{
			ID:   GenericTemplateID,
			Name: "Generic wall",
			Layers: []WallLayer{
				{MaterialID: "generic", Thickness: thickness, Function: FunctionStructure},
			},
		}), nil
	}
	return c.Template(templateID)
}

// ThermalTransmittance: упрощенная линейная оценка U = 1/(Rsi + Σ d/λ + Rse).
// Слои с неизвестным материалом или нулевой теплопроводностью не учитываются.
func (c *Catalog) ThermalTransmittance(t WallTemplate) float64 {
	r := surfaceResistanceInside + surfaceResistanceOutside
	for _, l := range t.Layers {
		m, ok := c.materials[l.MaterialID]
		if !ok || m.Conductivity <= 0 {
			continue
		}
		r += l.Thickness / m.Conductivity
	}
	return 1 / r
}

// Mass: масса квадратного метра стены, кг/м².
func (c *Catalog) Mass(t WallTemplate) float64 {
	var sum float64
	for _, l := range t.Layers {
		if m, ok := c.materials[l.MaterialID]; ok {
			sum += l.Thickness * m.Density
		}
	}
	return sum
}

func (c *Catalog) withDerived(t WallTemplate) WallTemplate {
	if t.Properties.ThermalTransmittance == 0 {
		t.Properties.ThermalTransmittance = c.ThermalTransmittance(t)
	}
	return t
}

// ============================================================
// YAML overrides
// ============================================================

type fileCatalog struct {
	Materials []Material     `yaml:"materials"`
	Templates []WallTemplate `yaml:"templates"`
}

// LoadFile читает YAML с дополнительными материалами и шаблонами поверх встроенных.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	c := Default()
	for _, m := range fc.Materials {
		if m.ID == "" {
			return nil, fmt.Errorf("material without id")
		}
		c.materials[m.ID] = m
	}
	for _, t := range fc.Templates {
		if err := c.validate(t); err != nil {
			return nil, err
		}
		c.templates[t.ID] = c.withDerived(t.clone())
	}
	return c, nil
}

func (c *Catalog) validate(t WallTemplate) error {
	if t.ID == "" || t.ID == GenericTemplateID {
		return kerr.New(kerr.KindInvalidParams, "template id is empty or reserved").With("templateId", t.ID)
	}
	if len(t.Layers) == 0 {
		return kerr.New(kerr.KindInvalidGeometry, "template has no layers").With("templateId", t.ID)
	}
	for i, l := range t.Layers {
		if l.Thickness <= 0 {
			return kerr.New(kerr.KindInvalidGeometry, "layer thickness must be positive").
				With("templateId", t.ID).With("layer", i).With("thickness", l.Thickness)
		}
		if _, ok := c.materials[l.MaterialID]; !ok {
			return kerr.New(kerr.KindInvalidParams, "unknown layer material").
				With("templateId", t.ID).With("layer", i).With("materialId", l.MaterialID)
		}
		if !validFunction(l.Function) {
			return kerr.New(kerr.KindInvalidParams, "unknown layer function").
				With("templateId", t.ID).With("layer", i).With("function", string(l.Function))
		}
	}
	return nil
}

func validFunction(f LayerFunction) bool {
	switch f {
	case FunctionStructure, FunctionInsulation, FunctionFinishInterior,
		FunctionFinishExterior, FunctionAirSpace, FunctionVaporControl:
		return true
	}
	return false
}

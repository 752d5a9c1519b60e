package catalog

// ============================================================
// Built-in materials & templates
// ============================================================

func defaultMaterials() []Material {
	return []Material{
		{ID: "generic", Name: "Generic masonry", Conductivity: 0.8, Density: 1800, CompressiveStrength: 10},
		{ID: "brick", Name: "Solid clay brick", Conductivity: 0.77, Density: 1800, CompressiveStrength: 15},
		{ID: "concrete", Name: "Reinforced concrete", Conductivity: 2.3, Density: 2400, CompressiveStrength: 30},
		{ID: "aerated_concrete", Name: "Aerated concrete block", Conductivity: 0.12, Density: 500, CompressiveStrength: 3.5},
		{ID: "mineral_wool", Name: "Mineral wool", Conductivity: 0.037, Density: 40},
		{ID: "eps", Name: "Expanded polystyrene", Conductivity: 0.035, Density: 20},
		{ID: "gypsum_board", Name: "Gypsum plasterboard", Conductivity: 0.25, Density: 900},
		{ID: "plaster", Name: "Lime-cement plaster", Conductivity: 0.87, Density: 1700},
		{ID: "timber_stud", Name: "Timber stud frame", Conductivity: 0.13, Density: 500, CompressiveStrength: 20},
		{ID: "vapor_barrier", Name: "PE vapor barrier", Conductivity: 0.4, Density: 950},
		{ID: "air", Name: "Ventilated air gap", Conductivity: 0.18, Density: 1.2},
		{ID: "facade_panel", Name: "Fibre-cement facade panel", Conductivity: 0.35, Density: 1600},
	}
}

func defaultTemplates() []WallTemplate {
	return []WallTemplate{
		{
			ID:   "ext_brick_insulated",
			Name: "External brick wall, insulated",
			Layers: []WallLayer{
				{MaterialID: "plaster", Thickness: 0.015, Function: FunctionFinishInterior},
				{MaterialID: "brick", Thickness: 0.25, Function: FunctionStructure},
				{MaterialID: "mineral_wool", Thickness: 0.1, Function: FunctionInsulation},
				{MaterialID: "plaster", Thickness: 0.01, Function: FunctionFinishExterior},
			},
			Properties: TemplateProperties{IsExternal: true, LoadBearing: true, FireRating: "REI 120"},
		},
		{
			ID:   "ext_concrete_ventilated",
			Name: "External concrete wall, ventilated facade",
			Layers: []WallLayer{
				{MaterialID: "gypsum_board", Thickness: 0.0125, Function: FunctionFinishInterior},
				{MaterialID: "concrete", Thickness: 0.2, Function: FunctionStructure},
				{MaterialID: "mineral_wool", Thickness: 0.15, Function: FunctionInsulation},
				{MaterialID: "air", Thickness: 0.04, Function: FunctionAirSpace},
				{MaterialID: "facade_panel", Thickness: 0.008, Function: FunctionFinishExterior},
			},
			Properties: TemplateProperties{IsExternal: true, LoadBearing: true, FireRating: "REI 180"},
		},
		{
			ID:   "int_aerated_block",
			Name: "Internal aerated concrete partition",
			Layers: []WallLayer{
				{MaterialID: "plaster", Thickness: 0.01, Function: FunctionFinishInterior},
				{MaterialID: "aerated_concrete", Thickness: 0.1, Function: FunctionStructure},
				{MaterialID: "plaster", Thickness: 0.01, Function: FunctionFinishInterior},
			},
			Properties: TemplateProperties{FireRating: "EI 60"},
		},
		{
			ID:   "int_timber_stud",
			Name: "Internal timber stud partition",
			Layers: []WallLayer{
				{MaterialID: "gypsum_board", Thickness: 0.0125, Function: FunctionFinishInterior},
				{MaterialID: "vapor_barrier", Thickness: 0.0002, Function: FunctionVaporControl},
				{MaterialID: "timber_stud", Thickness: 0.07, Function: FunctionStructure},
				{MaterialID: "gypsum_board", Thickness: 0.0125, Function: FunctionFinishInterior},
			},
			Properties: TemplateProperties{FireRating: "EI 30"},
		},
		{
			ID:   "int_concrete_bearing",
			Name: "Internal load-bearing concrete wall",
			Layers: []WallLayer{
				{MaterialID: "plaster", Thickness: 0.01, Function: FunctionFinishInterior},
				{MaterialID: "concrete", Thickness: 0.18, Function: FunctionStructure},
				{MaterialID: "plaster", Thickness: 0.01, Function: FunctionFinishInterior},
			},
			Properties: TemplateProperties{LoadBearing: true, FireRating: "REI 90"},
		},
	}
}

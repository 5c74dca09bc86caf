package config

import "sort"

var Presets = map[string]map[string]*Config{
	"preprocess": {
		"momenta": {
			Variants: []string{"momenta"},
		},
		"online": {
			Variants: []string{"online"},
		},
		"mother": {
			Variants: []string{"b_properties", "b_angles"},
		},
		"mother-quantile": {
			Variants:    []string{"b_properties"},
			PhiQuantile: QuantileConfig{Enabled: true},
		},
		"full": {
			Variants: []string{"momenta", "b_properties", "b_angles", "auxiliary"},
			Features: []string{"B_mass", "B_P"},
		},
		"reconstructed-frame": {
			Variants: []string{"momenta"},
			Frame:    "reconstructed",
		},
	},
	"simulate": {
		"quick": {
			Simulation: SimulationConfig{Events: 10000, Workers: 2},
		},
		"full": {
			Simulation: SimulationConfig{Events: 5000000, Workers: 8},
		},
		"evtgen": {
			Simulation: SimulationConfig{Events: 1000000, UseEvtGen: true},
		},
	},
}

func GetPreset(task, name string) *Config {
	if presets, ok := Presets[task]; ok {
		if cfg, ok := presets[name]; ok {
			return cfg
		}
	}
	return nil
}

func ListPresets(task string) []string {
	presets, ok := Presets[task]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListTasks() []string {
	tasks := make([]string, 0, len(Presets))
	for t := range Presets {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)
	return tasks
}

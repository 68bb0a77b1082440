package domain

import "sort"

// Commodity maps a human-readable commodity name to its futures ticker.
type Commodity struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
}

// DefaultCommodities is the stock universe of front-month commodity futures.
// Callers inject their own universe through configuration; this is only a default.
func DefaultCommodities() []Commodity {
	table := map[string]string{
		"Crude Oil":           "CL=F",
		"Gold":                "GC=F",
		"Natural Gas":         "NG=F",
		"Silver":              "SI=F",
		"Copper":              "HG=F",
		"Corn":                "ZC=F",
		"Soybeans":            "ZS=F",
		"Wheat":               "KE=F",
		"Coffee":              "KC=F",
		"Cotton":              "CT=F",
		"Sugar":               "SB=F",
		"Aluminum":            "ALI=F",
		"Platinum":            "PL=F",
		"Palladium":           "PA=F",
		"Brent Crude":         "BZ=F",
		"Frozen Orange Juice": "OJ=F",
		"Micro Gold":          "MGC=F",
		"Micro Silver":        "SIL=F",
		"Heating Oil":         "HO=F",
		"RBOB Gasoline":       "RB=F",
		"Oat Futures":         "ZO=F",
		"Rough Rice":          "ZR=F",
		"Soybean Oil":         "ZL=F",
		"Lean Hogs":           "HE=F",
		"Live Cattle":         "LE=F",
		"Feeder Cattle":       "GF=F",
		"Cocoa":               "CC=F",
	}

	out := make([]Commodity, 0, len(table))
	for name, ticker := range table {
		out = append(out, Commodity{Name: name, Ticker: ticker})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

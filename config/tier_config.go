package config

// DefaultTiers returns the built-in cloud -> (Tier-1 site, optional backup
// queue) table, used when the configuration supplies no tier mapping. Static
// within a process lifetime, read-only after load.
func DefaultTiers() map[string][]string {
	return map[string][]string{
		"CA":   {"TRIUMF", ""},
		"CERN": {"CERN-PROD", ""},
		"DE":   {"FZK-LCG2", ""},
		"ES":   {"pic", ""},
		"FR":   {"IN2P3-CC", ""},
		"IT":   {"INFN-T1", ""},
		"ND":   {"ARC", ""},
		"NL":   {"SARA-MATRIX", ""},
		"OSG":  {"BNL_CVMFS_1", ""},
		"RU":   {"RRC-KI-T1", ""},
		"TW":   {"Taiwan-LCG2", ""},
		"UK":   {"RAL-LCG2", ""},
		"US":   {"BNL_PROD", "BNL_PROD-condor"},
	}
}

// Package config loads battleship rulesets from a directory of JSON files.
//
// A ruleset names the board size and the fleet each player must place:
//
//	{
//	  "name": "skirmish",
//	  "description": "Quick 6x6 game with three small ships",
//	  "width": 6,
//	  "height": 6,
//	  "fleet": [
//	    {"name": "cruiser", "length": 3},
//	    {"name": "destroyer", "length": 2}
//	  ]
//	}
//
// The file name without extension is the ruleset id used by
// POST /createGame?ruleset=<id>. Files are validated with
// engine.ValidateRuleset when first loaded and cached afterwards.
//
// Default Ruleset:
//
// classic.json is the default when present; otherwise the first valid file
// in id order, otherwise the built-in engine.ClassicRuleset.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		return err
//	}
//
//	rules, err := manager.LoadRuleset("skirmish")
//	infos, err := manager.ListRulesets()
//	def := manager.GetDefault()
package config

package sentiment

// Fixed scoring lexicons. Axis scores are hit ratios against these sets;
// changing a list changes every historical recomputation, so additions go
// through backfill.
var (
	RiskWords = wordSet(
		// conflict / violence
		"war", "wars", "battle", "battles", "attack", "attacks", "attacked", "assault",
		"bomb", "bombing", "missile", "rocket", "strike", "strikes", "shelling",
		"shooting", "shot", "killed", "kill", "dead", "death", "fatal", "massacre",
		"terror", "terrorist", "hostage", "abduct", "abduction", "kidnap", "kidnapped",
		"explosion", "explosive", "blast", "violence", "violent",
		// crisis / disaster
		"crisis", "collapse", "disaster", "earthquake", "flood", "wildfire",
		"hurricane", "typhoon", "storm", "drought", "outbreak", "epidemic",
		"pandemic", "disease", "infected", "infection",
		// economy / hardship
		"recession", "inflation", "unemployment", "poverty", "hunger", "famine",
		"shortage", "default", "bankrupt", "bankruptcy",
		// politics / instability
		"coup", "sanction", "sanctions", "arrest", "arrested", "detained",
		"detention", "raid", "crackdown", "protest", "protests", "riot", "riots",
		"fraud", "corruption", "scandal", "resign", "resignation", "impeach",
		"impeachment",
		// misc negative
		"threat", "threats", "warning", "warns", "risk", "risky", "danger",
		"dangerous", "failed", "failure", "decline", "declines", "loss", "losses",
		"lose", "losing", "ban", "banned", "lawsuit", "sue", "suing", "trial",
	)

	PositiveWords = wordSet(
		"peace", "deal", "ceasefire", "truce", "agreement", "accord", "talks",
		"negotiation", "negotiations", "aid", "relief", "support", "help",
		"rescue", "rescued", "donation", "funding", "grant", "growth", "recover",
		"recovery", "improve", "improves", "improved", "boost", "record", "surge",
		"win", "wins", "won", "success", "successful", "progress", "breakthrough",
		"advance", "advances", "achieve", "achieved", "elected", "safe", "safer",
		"stability", "stable", "partnership", "cooperate", "cooperation",
	)

	UncertaintyWords = wordSet(
		"uncertain", "uncertainty", "volatile", "volatility", "tension",
		"tensions", "escalate", "escalation", "standoff", "probe",
		"investigation", "investigate", "investigating", "allegation",
		"allegations", "concern", "concerns", "fear", "fears", "doubt", "doubts",
	)
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

package tokenizer

// stopwords is the fixed set of Portuguese function words excluded from
// aggregation. Membership is configuration, not something computed.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "à", "ao", "aos", "as", "às", "com", "como", "da", "das", "de", "do", "dos", "e", "é", "em", "entre",
		"na", "nas", "no", "nos", "o", "os", "ou", "para", "por", "que", "se", "sem", "um", "uma", "não", "nao",
		"sim", "já", "tá", "tô", "vc", "vcs", "você", "vocês", "me", "minha", "meu", "meus", "minhas",
		"sua", "seu", "suas", "seus", "isso", "isto", "essa", "esse", "esta", "este", "aqui", "ali", "lá", "la",
	} {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether token is in the stopword set.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

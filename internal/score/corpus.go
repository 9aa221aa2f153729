package score

// DefaultCorpus returns the built-in reference corpus: example texts known
// to exemplify location-exposure phrasing around the monitored subject.
// The similarity model's vector space is derived from this set once per
// run; candidates are compared against it but never added to it.
func DefaultCorpus() []string {
	return []string{
		// Direct references to the known incident
		"Felix maison Seoul transports 25 minutes",
		"Hamedaxmj devant chez Felix Stray Kids",
		"Felix qui vit ici je ne sais pas qui tu es",
		"passants m'ont dit Felix habite ici quartier",

		// Precise addresses and places
		"adresse Felix quartier Coree du Sud Seoul",
		"Felix lives here Seoul house neighborhood",
		"apartment building Felix Gangnam Itaewon",
		"Felix home address location Korea",
		"maison de Felix rue Seoul district",

		// Dangerous proximity hints
		"25 minutes de transport pour voir Felix",
		"proche de chez Felix walking distance",
		"devant l'immeuble de Felix spotted",
		"Felix sortir de sa maison waiting outside",
		"Felix apartment complex entrance door",

		// Stalking vocabulary
		"j'ai trouve ou habite Felix stalking",
		"spotted Felix leaving his house",
		"Felix private residence location coordinates",
		"Felix home leaked dox doxx information",
		"suivre Felix jusqu a chez lui follow home",

		// Precise geographic context
		"Seoul Gangnam dong gu ro Felix building",
		"GPS coordinates Felix house latitude longitude",
		"street view Felix apartment Google Maps",
		"Felix neighborhood tour walking video",
		"immeuble Felix vue de la rue street",

		// Mixed-language variants
		"Felix house tour maison visite domicile",
		"ou vit Felix where does Felix live address",
		"Felix casa apartamento direccion Seoul",
		"Felix wohnt hier Adresse Haus Korea",
	}
}

// englishStopWords covers the common English function words; the list
// follows the usual IR stop lists rather than trying to be exhaustive.
var englishStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "cannot",
	"could", "did", "do", "does", "doing", "down", "during", "each", "few",
	"for", "from", "further", "had", "has", "have", "having", "he", "her",
	"here", "hers", "herself", "him", "himself", "his", "how", "i", "if",
	"in", "into", "is", "it", "its", "itself", "just", "me", "more", "most",
	"my", "myself", "no", "nor", "not", "now", "of", "off", "on", "once",
	"only", "or", "other", "our", "ours", "ourselves", "out", "over", "own",
	"same", "she", "should", "so", "some", "such", "than", "that", "the",
	"their", "theirs", "them", "themselves", "then", "there", "these",
	"they", "this", "those", "through", "to", "too", "under", "until", "up",
	"very", "was", "we", "were", "what", "when", "where", "which", "while",
	"who", "whom", "why", "will", "with", "would", "you", "your", "yours",
	"yourself", "yourselves",
}

// frenchStopWords covers the French function words that show up in the
// mixed-language corpus and candidate texts.
var frenchStopWords = []string{
	"le", "la", "les", "un", "une", "des", "et", "ou", "de", "du", "en",
	"dans", "au", "aux", "pour", "avec", "sur", "chez", "qui", "que",
}

// DefaultStopWords returns the merged bilingual stop-word set used when
// fitting the similarity model.
func DefaultStopWords() map[string]struct{} {
	stop := make(map[string]struct{}, len(englishStopWords)+len(frenchStopWords))
	for _, w := range englishStopWords {
		stop[w] = struct{}{}
	}
	for _, w := range frenchStopWords {
		stop[w] = struct{}{}
	}
	return stop
}

package torah

import "sort"

// Canonical is the fixed sequence of the 54 weekly readings. It is both the
// allowlist for ingestion and the sort key for the dataset.
var Canonical = [54]string{
	// Genesis
	"Parashat Bereshit",
	"Parashat Noach",
	"Parashat Lech-Lecha",
	"Parashat Vayera",
	"Parashat Chayei Sara",
	"Parashat Toldot",
	"Parashat Vayetzei",
	"Parashat Vayishlach",
	"Parashat Vayeshev",
	"Parashat Miketz",
	"Parashat Vayigash",
	"Parashat Vayechi",
	// Exodus
	"Parashat Shemot",
	"Parashat Vaera",
	"Parashat Bo",
	"Parashat Beshalach",
	"Parashat Yitro",
	"Parashat Mishpatim",
	"Parashat Terumah",
	"Parashat Tetzaveh",
	"Parashat Ki Tisa",
	"Parashat Vayakhel",
	"Parashat Pekudei",
	// Leviticus
	"Parashat Vayikra",
	"Parashat Tzav",
	"Parashat Shmini",
	"Parashat Tazria",
	"Parashat Metzora",
	"Parashat Achrei Mot",
	"Parashat Kedoshim",
	"Parashat Emor",
	"Parashat Behar",
	"Parashat Bechukotai",
	// Numbers
	"Parashat Bamidbar",
	"Parashat Nasso",
	"Parashat Beha'alotcha",
	"Parashat Sh'lach",
	"Parashat Korach",
	"Parashat Chukat",
	"Parashat Balak",
	"Parashat Pinchas",
	"Parashat Matot",
	"Parashat Masei",
	// Deuteronomy
	"Parashat Devarim",
	"Parashat Vaetchanan",
	"Parashat Eikev",
	"Parashat Re'eh",
	"Parashat Shoftim",
	"Parashat Ki Teitzei",
	"Parashat Ki Tavo",
	"Parashat Nitzavim",
	"Parashat Vayeilech",
	"Parashat Ha'azinu",
	"Parashat V'Zot HaBerachah",
}

// Combined lists the doubled readings the calendar reports in non-leap years.
// They never enter the dataset; their halves are taken from other years.
var Combined = map[string]bool{
	"Parashat Vayakhel-Pekudei":    true,
	"Parashat Tazria-Metzora":      true,
	"Parashat Achrei Mot-Kedoshim": true,
	"Parashat Behar-Bechukotai":    true,
	"Parashat Chukat-Balak":        true,
	"Parashat Matot-Masei":         true,
	"Parashat Nitzavim-Vayeilech":  true,
}

// VZotHaBerachah is read on Simchat Torah and never tagged as a weekly reading
// by the calendar service.
const VZotHaBerachah = "Parashat V'Zot HaBerachah"

var canonicalIndex = func() map[string]int {
	m := make(map[string]int, len(Canonical))
	for i, title := range Canonical {
		m[title] = i
	}
	return m
}()

// CanonicalIndex returns the position of title in the canonical sequence.
func CanonicalIndex(title string) (int, bool) {
	i, ok := canonicalIndex[title]
	return i, ok
}

// IsCanonical reports whether title is one of the 54 readings.
func IsCanonical(title string) bool {
	_, ok := canonicalIndex[title]
	return ok
}

// SortCanonical orders readings by their canonical position. Unknown titles
// sort last, keeping their relative order.
func SortCanonical(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return rank(readings[i].Title) < rank(readings[j].Title)
	})
}

// OrderedFrom returns the readings of m in canonical order, along with the
// canonical titles m does not contain.
func OrderedFrom(m map[string]Reading) (ordered []Reading, missing []string) {
	for _, title := range Canonical {
		if r, ok := m[title]; ok {
			ordered = append(ordered, r)
		} else {
			missing = append(missing, title)
		}
	}
	return ordered, missing
}

func rank(title string) int {
	if i, ok := canonicalIndex[title]; ok {
		return i
	}
	return len(Canonical)
}

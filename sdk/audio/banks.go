package audio

import "github.com/tapejam/tapejam/sdk/tape"

// Bank describes one sound bank: a named set of per-note sample files
// served under a common base URL.
type Bank struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Samples     map[string]string `json:"samples"` // note id -> file name
}

// fullSampleMap maps every note from C3 to C6 to "<note><octave>.wav".
func fullSampleMap() map[string]string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	samples := make(map[string]string)
	for _, octave := range []int{3, 4, 5} {
		for _, name := range names {
			id := tape.NoteID(name, octave)
			samples[id] = id + ".wav"
		}
	}
	samples["C6"] = "C6.wav"
	return samples
}

// stringsSampleMap covers the G2-F5 range of the strings library.
// Sharps are URL-encoded in the file names ("#" -> "%23") because the
// samples are fetched over HTTP.
func stringsSampleMap() map[string]string {
	samples := make(map[string]string)
	add := func(names []string, octave int) {
		for _, name := range names {
			id := tape.NoteID(name, octave)
			file := id + ".wav"
			if len(name) == 2 { // sharped
				file = name[:1] + "%23" + file[len(name):]
			}
			samples[id] = file
		}
	}
	add([]string{"G", "G#", "A", "A#", "B"}, 2)
	all := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	add(all, 3)
	add(all, 4)
	add([]string{"C", "C#", "D", "D#", "E", "F"}, 5)
	return samples
}

// Banks returns the bank catalog. Samples for bank "x" are expected
// under "<base>/x/".
func Banks() []Bank {
	return []Bank{
		{
			ID:          "strings",
			Name:        "Strings",
			Description: "Lush orchestral strings (violins, cellos)",
			Samples:     stringsSampleMap(),
		},
		{
			ID:          "choir",
			Name:        "Choir",
			Description: "The iconic tape choir sound",
			Samples:     fullSampleMap(),
		},
		{
			ID:          "flutes",
			Name:        "Flutes",
			Description: "Soft, melodic flute ensemble",
			Samples:     fullSampleMap(),
		},
		{
			ID:          "brass",
			Name:        "Brass",
			Description: "Bold brass section",
			Samples:     fullSampleMap(),
		},
	}
}

// BankByID looks a bank up in the catalog.
func BankByID(id string) (Bank, bool) {
	for _, bank := range Banks() {
		if bank.ID == id {
			return bank, true
		}
	}
	return Bank{}, false
}

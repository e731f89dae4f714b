package service

import "math/rand"

var artifactAdjectives = []string{
	"Fractured", "Silent", "Echoing", "Burning", "Hollow",
	"Forgotten", "Waking", "Ciphered", "Distant", "Last",
}

var artifactNouns = []string{
	"Core", "Cipher", "Beacon", "Shard", "Key",
	"Protocol", "Lens", "Archive", "Signal", "Relay",
}

func artifactName(rng *rand.Rand) string {
	return artifactAdjectives[rng.Intn(len(artifactAdjectives))] + " " +
		artifactNouns[rng.Intn(len(artifactNouns))]
}

// mythicStory is the lore attached to mythic drops.
type mythicStory struct {
	Name  string
	Story string
}

var mythicStories = []mythicStory{
	{
		Name:  "The First Echo",
		Story: "It hums with a voice that predates the network. Whoever listens long enough starts answering.",
	},
	{
		Name:  "Heart of the Twin",
		Story: "Two signals, one pulse. It beats slightly out of sync with yours, as if it belongs to someone else.",
	},
	{
		Name:  "The Unsent Message",
		Story: "A packet that never reached its destination. It still tries, every night, at the same hour.",
	},
	{
		Name:  "Sentinel's Oath",
		Story: "Carved into the checksum is a promise nobody remembers making. It holds anyway.",
	},
}

func pickMythicStory(rng *rand.Rand) mythicStory {
	return mythicStories[rng.Intn(len(mythicStories))]
}

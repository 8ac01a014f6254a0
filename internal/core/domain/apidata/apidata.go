package apidata

// Data is the aggregate document served on /data.json.
type Data struct {
	Stats   Stats   `json:"stats"`
	Flavors Flavors `json:"flavors"`
}

// Stats holds repository and community counters.
type Stats struct {
	Stargazers int `json:"stargazers"`
	Watchers   int `json:"watchers"`
	Forks      int `json:"forks"`
	// Contributors is -1 when the count could not be scraped
	Contributors int `json:"contributors"`
	Translations int `json:"translations"`
}

// Flavors groups the release channels NewPipe is distributed through.
type Flavors struct {
	NewPipe Flavor  `json:"newpipe"`
	FDroid  Flavor  `json:"fdroid"`
	Stable  Release `json:"stable"`
}

// Flavor describes the suggested APK of one F-Droid repository.
type Flavor struct {
	Version     string `json:"version"`
	VersionCode int    `json:"version_code"`
	APK         string `json:"apk"`
	Hash        string `json:"hash"`
	HashType    string `json:"hash_type"`
}

// Release is the current version declared in the fdroiddata metadata.
type Release struct {
	Version     string `json:"version"`
	VersionCode int    `json:"version_code"`
}

// UnknownContributors marks a contributors count that could not be determined.
const UnknownContributors = -1

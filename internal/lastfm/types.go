package lastfm

import "strconv"

// Tag is a Last.fm folksonomy tag. Count is only present on track tags.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
	URL   string `json:"url"`
}

// TrackInfo is the subset of track.getInfo used for enrichment.
type TrackInfo struct {
	Name      string
	Artist    string
	Listeners int
	Playcount int
	Tags      []Tag
}

type topTagsResponse struct {
	TopTags struct {
		Tag []Tag `json:"tag"`
	} `json:"toptags"`
}

// trackInfoResponse is the track.getInfo payload. Counters arrive as strings.
type trackInfoResponse struct {
	Track struct {
		Name      string `json:"name"`
		Listeners string `json:"listeners"`
		Playcount string `json:"playcount"`
		Artist    struct {
			Name string `json:"name"`
		} `json:"artist"`
		TopTags struct {
			Tag []Tag `json:"tag"`
		} `json:"toptags"`
	} `json:"track"`
}

func (r trackInfoResponse) toTrackInfo() TrackInfo {
	listeners, _ := strconv.Atoi(r.Track.Listeners)
	playcount, _ := strconv.Atoi(r.Track.Playcount)
	return TrackInfo{
		Name:      r.Track.Name,
		Artist:    r.Track.Artist.Name,
		Listeners: listeners,
		Playcount: playcount,
		Tags:      nonNil(r.Track.TopTags.Tag),
	}
}

func nonNil(tags []Tag) []Tag {
	if tags == nil {
		return []Tag{}
	}
	return tags
}

type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

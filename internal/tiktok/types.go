// Package tiktok adapts a RapidAPI TikTok hashtag listing to aggregator records.
package tiktok

// Source is the human-readable provider name carried on every record.
const Source = "TikTok"

// Result-count bounds for one listing.
const (
	DefaultCount = 10
	MaxCount     = 30
)

type postsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Videos []*video `json:"videos"`
	} `json:"data"`
}

type video struct {
	VideoID        string  `json:"video_id"`
	AwemeID        string  `json:"aweme_id"`
	Title          string  `json:"title"`
	Cover          string  `json:"cover"`
	OriginCover    string  `json:"origin_cover"`
	AIDynamicCover string  `json:"ai_dynamic_cover"`
	Play           string  `json:"play"`
	CreateTime     int64   `json:"create_time"`
	Author         *author `json:"author"`
}

type author struct {
	UniqueID string `json:"unique_id"`
	Nickname string `json:"nickname"`
}

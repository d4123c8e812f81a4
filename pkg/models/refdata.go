package models

// Tag is one entry of the tag vocabulary feed.
type Tag struct {
	TagID int64  `db:"tagid" json:"tagid"`
	Name  string `db:"name" json:"name"`
}

// Category is one entry of the category vocabulary feed.
// CategoryType: 0 type, 1 player, 2 features, 3 controller.
type Category struct {
	CategoryID   int64  `db:"catid" json:"categoryid"`
	CategoryType int64  `db:"catcat" json:"category_type"`
	DisplayName  string `db:"name" json:"display_name"`
}

// TagsFeed is the wire shape of the tags reference feed.
type TagsFeed struct {
	Response struct {
		Tags []Tag `json:"tags"`
	} `json:"response"`
}

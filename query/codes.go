package query

// Region and kind codes as they appear in search URLs, mapped to the labels
// shown in crawl reports and notifications. Unknown codes fall back to the
// raw code so a new area never breaks description building.

var regionNames = map[string]string{
	"01": "北海道",
	"04": "宮城県",
	"11": "埼玉県",
	"12": "千葉県",
	"13": "東京都",
	"14": "神奈川県",
	"22": "静岡県",
	"23": "愛知県",
	"26": "京都府",
	"27": "大阪府",
	"28": "兵庫県",
	"40": "福岡県",
}

var kindNames = map[string]string{
	"chintai":   "賃貸",
	"mansion":   "中古マンション",
	"kodate":    "中古一戸建て",
	"tochi":     "土地",
	"shinchiku": "新築マンション",
}

// RegionName resolves a region code to its display name.
func RegionName(code string) string {
	if name, ok := regionNames[code]; ok {
		return name
	}
	return code
}

// KindName resolves a listing-kind code to its display name.
func KindName(code string) string {
	if name, ok := kindNames[code]; ok {
		return name
	}
	return code
}

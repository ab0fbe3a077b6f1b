package places

import "math/rand"

// Vocabulary for generated search phrases, matching the zh-TW audience of the
// dataset.
var (
	foodTypes = []string{
		"日式料理", "韓式料理", "中式料理", "台式料理", "義式料理",
		"法式料理", "美式料理", "泰式料理", "越式料理", "印度料理",
		"墨西哥料理", "素食料理", "海鮮料理", "燒烤", "火鍋",
		"牛排", "咖啡廳", "甜點", "早午餐", "小吃",
		"麵食", "壽司", "拉麵", "披薩", "漢堡",
		"炸雞", "便當", "滷味", "餃子", "粥品",
	}
	venues = []string{
		"餐廳", "餐館", "食堂", "小館", "料理店",
		"食店", "美食", "飯店", "小吃店", "夜市攤",
	}
	districts = []string{
		"台北", "信義區", "大安區", "中山區", "松山區",
		"內湖區", "士林區", "北投區", "文山區", "南港區",
		"中正區", "萬華區", "新北", "板橋", "新莊",
		"三重", "中和", "永和", "土城", "樹林",
		"淡水", "汐止", "桃園", "中壢", "平鎮",
	}
)

// GenerateKeywords produces count random restaurant search phrases by
// combining a district, a food type and a venue word in one of three patterns.
func GenerateKeywords(count int) []string {
	keywords := make([]string, 0, count)
	for i := 0; i < count; i++ {
		foodType := foodTypes[rand.Intn(len(foodTypes))]
		venue := venues[rand.Intn(len(venues))]
		district := districts[rand.Intn(len(districts))]

		switch rand.Intn(3) {
		case 0:
			keywords = append(keywords, district+foodType)
		case 1:
			keywords = append(keywords, foodType+venue)
		default:
			keywords = append(keywords, district+venue)
		}
	}
	return keywords
}

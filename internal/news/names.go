package news

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/takumi-oda/kabusight/internal/infra"
	"github.com/takumi-oda/kabusight/pkg/utils"
)

// titleCodePattern strips the "(6501.T)" suffix Yahoo Japan appends to
// page titles.
var titleCodePattern = regexp.MustCompile(`\s*\([0-9]+\.T\)\s*`)

// nameSelectors are tried in order on the quote page.
var nameSelectors = []string{
	`h1[data-test=company-name]`,
	"h1.company-name",
	"h1",
	"[data-test=company-name]",
	".company-name",
}

// NameResolver resolves a domestic security code to its Japanese
// company name. Resolution order: caller-supplied hint, Yahoo Finance
// Japan quote page, static table. Results are cached for a day.
type NameResolver struct {
	httpClient *http.Client
	cache      *infra.Cache
	baseURL    string
}

// NameResolverOption configures a NameResolver.
type NameResolverOption func(*NameResolver)

// WithNameHTTPClient sets a custom HTTP client (used by tests).
func WithNameHTTPClient(c *http.Client) NameResolverOption {
	return func(r *NameResolver) { r.httpClient = c }
}

// WithNameBaseURL overrides the quote page base URL (used by tests).
func WithNameBaseURL(u string) NameResolverOption {
	return func(r *NameResolver) { r.baseURL = u }
}

// NewNameResolver creates a resolver.
func NewNameResolver(opts ...NameResolverOption) *NameResolver {
	r := &NameResolver{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      infra.NewCache(24 * time.Hour),
		baseURL:    "https://finance.yahoo.co.jp",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the Japanese company name for a symbol, or "" when
// the symbol is not a domestic code or nothing resolves. hint is an
// upstream-provided name used when it already contains Japanese text.
func (r *NameResolver) Resolve(ctx context.Context, symbol, hint string) string {
	code := utils.StripLocalSuffix(symbol)
	if !isAllDigits(code) {
		return ""
	}

	if hint != "" && utils.ContainsJapanese(hint) {
		return strings.TrimSpace(hint)
	}

	if cached, ok := r.cache.Get(code); ok {
		return cached.(string)
	}

	name := r.scrapeName(ctx, code)
	if name == "" {
		name = staticNames[code]
	}

	if name != "" {
		r.cache.Set(code, name)
	}
	return name
}

// scrapeName pulls the company name from the Yahoo Finance Japan quote
// page. Failures are logged and resolve to "".
func (r *NameResolver) scrapeName(ctx context.Context, code string) string {
	pageURL := fmt.Sprintf("%s/quote/%s.T", r.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("news/names: fetch %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	for _, selector := range nameSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" && utils.ContainsJapanese(text) {
			return text
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = titleCodePattern.ReplaceAllString(title, "")
	if title != "" && utils.ContainsJapanese(title) {
		return title
	}

	return ""
}

// staticNames maps major domestic security codes to company names,
// used when the quote page is unreachable.
var staticNames = map[string]string{
	"2501": "サッポロホールディングス",
	"2502": "アサヒグループホールディングス",
	"2503": "キリンホールディングス",
	"2531": "宝ホールディングス",
	"2801": "キッコーマン",
	"2802": "味の素",
	"2871": "ニチレイ",
	"2914": "日本たばこ産業",
	"3101": "東洋紡",
	"3103": "ユニ・チャーム",
	"3105": "日清紡ホールディングス",
	"3401": "帝人",
	"3402": "東レ",
	"3405": "クラレ",
	"3407": "旭化成",
	"4003": "コスモエネルギーホールディングス",
	"4004": "昭和電工",
	"4005": "住友化学",
	"4061": "デンカ",
	"4063": "信越化学工業",
	"4183": "三井化学",
	"4188": "三菱ケミカルホールディングス",
	"4208": "宇部興産",
	"4272": "日本化薬",
	"4452": "花王",
	"4453": "資生堂",
	"4502": "武田薬品工業",
	"4503": "アステラス製薬",
	"4506": "大日本住友製薬",
	"4507": "塩野義製薬",
	"4519": "中外製薬",
	"4523": "エーザイ",
	"4527": "ロート製薬",
	"4528": "小野薬品工業",
	"4543": "テルモ",
	"4568": "第一三共",
	"4578": "大塚ホールディングス",
	"4612": "日本ペイントホールディングス",
	"4661": "オリエンタルランド",
	"4684": "オムロン",
	"4689": "ヤフー",
	"4704": "トレンドマイクロ",
	"4751": "サイバーエージェント",
	"4755": "楽天グループ",
	"4901": "富士フイルムホールディングス",
	"4911": "資生堂",
	"4912": "ライオン",
	"5019": "出光興産",
	"5020": "ENEOSホールディングス",
	"5101": "横浜ゴム",
	"5108": "ブリヂストン",
	"5201": "AGC",
	"5214": "日本電気硝子",
	"5232": "住友大阪セメント",
	"5233": "太平洋セメント",
	"5301": "東海カーボン",
	"5332": "TOTO",
	"5333": "日本ガイシ",
	"5401": "日本製鉄",
	"5406": "神戸製鋼所",
	"5411": "JFEホールディングス",
	"5541": "大平洋金属",
	"5631": "日本製鋼所",
	"5703": "日本軽金属ホールディングス",
	"5711": "三菱マテリアル",
	"5713": "住友金属鉱山",
	"5714": "DOWAホールディングス",
	"5801": "古河電気工業",
	"5802": "住友電気工業",
	"5803": "フジクラ",
	"6098": "リクルートホールディングス",
	"6178": "日本郵政",
	"6301": "コマツ",
	"6302": "住友重機械工業",
	"6305": "日立建機",
	"6326": "クボタ",
	"6361": "荏原製作所",
	"6367": "ダイキン工業",
	"6471": "日本精工",
	"6472": "NTN",
	"6473": "ジェイテクト",
	"6501": "日立製作所",
	"6502": "東芝",
	"6503": "三菱電機",
	"6504": "富士電機",
	"6506": "安川電機",
	"6594": "日本電産",
	"6701": "日本電気",
	"6702": "富士通",
	"6723": "ルネサスエレクトロニクス",
	"6724": "セイコーエプソン",
	"6752": "パナソニック",
	"6758": "ソニーグループ",
	"6770": "アルプスアルパイン",
	"6841": "横河電機",
	"6857": "アドバンテスト",
	"6861": "キーエンス",
	"6902": "デンソー",
	"6954": "ファナック",
	"6971": "京セラ",
	"6976": "太陽誘電",
	"6981": "村田製作所",
	"7011": "三菱重工業",
	"7012": "川崎重工業",
	"7013": "IHI",
	"7201": "日産自動車",
	"7202": "いすゞ自動車",
	"7203": "トヨタ自動車",
	"7205": "日野自動車",
	"7261": "マツダ",
	"7267": "ホンダ",
	"7269": "スズキ",
	"7270": "SUBARU",
	"7272": "ヤマハ発動機",
	"7731": "ニコン",
	"7732": "トプコン",
	"7733": "オリンパス",
	"7741": "HOYA",
	"7751": "キヤノン",
	"7832": "バンダイナムコホールディングス",
	"7911": "凸版印刷",
	"7912": "大日本印刷",
	"8001": "伊藤忠商事",
	"8002": "丸紅",
	"8015": "豊田通商",
	"8031": "三井物産",
	"8058": "三菱商事",
	"8306": "三菱UFJフィナンシャル・グループ",
	"8316": "三井住友フィナンシャルグループ",
	"8354": "ふくおかフィナンシャルグループ",
	"8355": "静岡銀行",
	"8411": "みずほフィナンシャルグループ",
	"8601": "大和証券グループ本社",
	"8604": "野村ホールディングス",
	"8628": "松井証券",
	"8630": "SOMPOホールディングス",
	"8725": "MS&ADインシュアランスグループホールディングス",
	"8750": "第一生命ホールディングス",
	"8766": "東京海上ホールディングス",
	"8801": "三井不動産",
	"8802": "三菱地所",
	"8830": "住友不動産",
	"9001": "東武鉄道",
	"9005": "東急",
	"9007": "小田急電鉄",
	"9008": "京王電鉄",
	"9009": "京成電鉄",
	"9020": "東日本旅客鉄道",
	"9021": "西日本旅客鉄道",
	"9022": "東海旅客鉄道",
	"9104": "商船三井",
	"9107": "川崎汽船",
	"9202": "ANAホールディングス",
	"9301": "三菱倉庫",
	"9432": "日本電信電話",
	"9433": "KDDI",
	"9434": "ソフトバンク",
	"9501": "東京電力ホールディングス",
	"9502": "中部電力",
	"9503": "関西電力",
	"9531": "東京ガス",
	"9532": "大阪ガス",
	"9602": "東宝",
	"9684": "スクウェア・エニックス・ホールディングス",
	"9697": "カプコン",
	"9706": "日本空港ビルデング",
	"9719": "SCSK",
	"9735": "セコム",
	"9766": "コナミホールディングス",
	"9983": "ファーストリテイリング",
	"9984": "ソフトバンクグループ",
}

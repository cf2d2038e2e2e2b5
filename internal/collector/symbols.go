package collector

import (
	"sort"
	"strings"
)

// futuresCodes maps continuous-contract names to exchange product codes.
var futuresCodes = map[string]string{
	"螺纹钢主连": "RB",
	"铁矿石主连": "I",
	"焦煤主连":  "JM",
	"焦炭主连":  "J",
	"甲醇主连":  "MA",
	"PTA主连": "TA",
	"豆粕主连":  "M",
	"豆油主连":  "Y",
	"棕榈油主连": "P",
	"白糖主连":  "SR",
	"棉花主连":  "CF",
	"沪铜主连":  "CU",
	"沪铝主连":  "AL",
	"黄金主连":  "AU",
	"原油主连":  "SC",
}

// ResolveSymbol maps a contract name or product code to its product code.
// ok is false for symbols outside the supported set.
func ResolveSymbol(symbol string) (code string, ok bool) {
	s := strings.TrimSpace(symbol)
	if code, ok := futuresCodes[s]; ok {
		return code, true
	}
	upper := strings.ToUpper(s)
	for _, code := range futuresCodes {
		if code == upper {
			return code, true
		}
	}
	return s, false
}

// Contract pairs a continuous-contract name with its product code.
type Contract struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// SupportedContracts lists the known contracts sorted by product code.
func SupportedContracts() []Contract {
	out := make([]Contract, 0, len(futuresCodes))
	for name, code := range futuresCodes {
		out = append(out, Contract{Name: name, Code: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// yahooTickers maps internal codes to Yahoo Finance tickers.
var yahooTickers = map[string]string{
	"SPX500": "^GSPC",
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"AU":     "GC=F",
	"GC":     "GC=F",
	"CU":     "HG=F",
	"HG":     "HG=F",
	"SC":     "CL=F",
	"CL":     "CL=F",
	"SI":     "SI=F",
}

package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// ServiceInfo is the content of a remote server's TXT records.
type ServiceInfo struct {
	Name   string
	Scheme string
	Path   string
}

// EncodeServiceTXT creates TXT records for a remote server. Empty fields
// are omitted.
func EncodeServiceTXT(info *ServiceInfo) TXTRecordMap {
	txt := make(TXTRecordMap)
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}
	if info.Scheme != "" {
		txt[TXTKeyScheme] = info.Scheme
	}
	if info.Path != "" {
		txt[TXTKeyPath] = info.Path
	}
	return txt
}

// DecodeServiceTXT parses TXT records, applying defaults for missing keys.
func DecodeServiceTXT(txt TXTRecordMap) (*ServiceInfo, error) {
	info := &ServiceInfo{
		Name:   txt[TXTKeyName],
		Scheme: SchemeWS,
		Path:   "/",
	}

	if s, ok := txt[TXTKeyScheme]; ok && s != "" {
		s = strings.ToLower(s)
		if s != SchemeWS && s != SchemeWSS {
			return nil, fmt.Errorf("%w: %q", ErrInvalidScheme, s)
		}
		info.Scheme = s
	}

	if p, ok := txt[TXTKeyPath]; ok && p != "" {
		if strings.ContainsAny(p, " ?#") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		info.Path = p
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

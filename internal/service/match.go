package service

import "strings"

// matchPath 判断权限路径模式是否匹配请求路径，按顺序尝试三种方式：
//
//  1. 精确相等；
//  2. 尾部通配：模式以 * 结尾时，去掉 * 后做前缀匹配；
//  3. 参数段匹配：模式与路径按 / 切分后段数必须相等，形如 {id} 的
//     模式段匹配任意对应路径段，其余段必须精确相等。
//
// 第一种命中即返回。
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}

	if strings.Contains(pattern, "{") {
		patternSegs := strings.Split(pattern, "/")
		pathSegs := strings.Split(path, "/")
		if len(patternSegs) != len(pathSegs) {
			return false
		}
		for i, seg := range patternSegs {
			if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
				continue
			}
			if seg != pathSegs[i] {
				return false
			}
		}
		return true
	}

	return false
}

// permissionEntry 把权限行编码为缓存友好的字符串：button 类型带方法
// 前缀（"GET /api/..."），导航节点只有路径。编码和解码必须配对使用。
func permissionEntry(method, path string) string {
	if method == "" {
		return path
	}
	return strings.ToUpper(method) + " " + path
}

// matchEntry 判断一条缓存条目是否匹配请求的 (method, path)。
// 带方法前缀的条目要求方法相等后再做路径匹配；纯路径条目只匹配路径。
func matchEntry(entry, method, path string) bool {
	if pattern, ok := strings.CutPrefix(entry, strings.ToUpper(method)+" "); ok {
		return matchPath(pattern, path)
	}
	if strings.Contains(entry, " ") {
		// 带其它方法前缀的条目，方法不匹配。
		return false
	}
	return matchPath(entry, path)
}

// matchAny 在权限条目集合中寻找首个匹配。
func matchAny(entries map[string]struct{}, method, path string) bool {
	for entry := range entries {
		if matchEntry(entry, method, path) {
			return true
		}
	}
	return false
}

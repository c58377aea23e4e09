// Package config 提供配置管理相关的子包。
//
// 子包列表：
//   - xconf: 基于 koanf 的 YAML/JSON 配置加载与文件监视
package config

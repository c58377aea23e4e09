// Package xconf 基于 koanf 加载 YAML/JSON 配置，并支持文件变更热加载。
//
// [Load] 从文件加载，格式由扩展名决定（.yaml/.yml/.json）；
// [LoadBytes] 从内存数据加载，需显式给出格式。
// [Config.Unmarshal] 按 koanf 标签把某个路径下的配置反序列化到结构体，
// 默认允许弱类型转换（"8" 可转为 int 8）。
//
// # 并发
//
// [Config.Reload] 解析成功后原子替换底层 koanf 实例，解析失败时保留旧配置。
// [Config.Client] 返回当前实例的快照，Reload 之后旧指针仍可用但数据已过期。
//
// # 监视
//
// [Config.Watch] 监视配置文件所在目录（兼容编辑器的原子写入），
// 防抖后调用 Reload 并回调。Watch 阻塞直到 ctx 取消，可直接作为 xrun 服务运行；
// 返回后不会再有回调。
package xconf

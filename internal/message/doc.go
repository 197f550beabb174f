// Package message 定义计算服务的全部请求/响应记录。
//
// 每种计算对应一对记录：
//   - XxxArgs：请求记录，线上布局以 1 字节 endianness 标记开头（不在结构体中出现）；
//   - XxxResponse：响应记录，全部为 Double 字段。
//
// 记录名同时用作路由名，内容类型由描述符推导，
// 例如 application/x.elastic-modules-for-honeycomb-args-message。
package message

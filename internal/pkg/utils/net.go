package utils

import (
	"net"
)

// GetOutboundIP 获取本机对外通信使用的 IP，用于服务注册。
// 这里并不会真正建立 UDP 连接，只是借助路由表选择出口地址。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
